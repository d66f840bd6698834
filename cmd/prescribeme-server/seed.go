package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prescribeme/api/internal/domain/clinical"
	"github.com/prescribeme/api/internal/domain/identity"
	"github.com/prescribeme/api/internal/domain/notification"
	"github.com/prescribeme/api/internal/domain/prescription"
	"github.com/prescribeme/api/internal/domain/scheduling"
	"github.com/prescribeme/api/internal/platform/auth"
)

// Demo credentials: every seeded account uses this password.
const seedPassword = "Password123!"

// runSeed loads demo accounts and records. It is a no-op when the demo
// doctor already exists.
func runSeed(ctx context.Context, pool *pgxpool.Pool) error {
	users := identity.NewUserRepoPG(pool)
	doctors := identity.NewDoctorRepoPG(pool)
	patients := identity.NewPatientRepoPG(pool)

	if _, err := users.GetByEmail(ctx, "demo-doctor@prescribeme.dev"); err == nil {
		fmt.Println("Demo data already present, nothing to do.")
		return nil
	}

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	now := time.Now().UTC()

	// Doctors
	doctorChen := &identity.User{
		Email: "demo-doctor@prescribeme.dev", Username: "demo-doctor",
		FullName: "Dr. Sarah Chen", PasswordHash: hash,
		IsActive: true, IsVerified: true, Role: auth.RoleDoctor,
	}
	if err := users.Create(ctx, doctorChen); err != nil {
		return err
	}
	chenProfile := &identity.DoctorProfile{
		UserID: doctorChen.ID, Specialty: "Cardiology", Hospital: "City General Hospital",
		ExperienceYears: 12, LicenseNumber: strPtr("MD-48213"),
		AcceptingNewPatients: true, Availability: strPtr("Mon-Fri 9am-5pm"),
		Languages: []string{"English", "Mandarin"}, Rating: 4.8, ReviewCount: 132,
	}
	if err := doctors.Create(ctx, chenProfile); err != nil {
		return err
	}

	doctorBrooks := &identity.User{
		Email: "demo-doctor-2@prescribeme.dev", Username: "demo-doctor-2",
		FullName: "Dr. Michael Brooks", PasswordHash: hash,
		IsActive: true, IsVerified: true, Role: auth.RoleDoctor,
	}
	if err := users.Create(ctx, doctorBrooks); err != nil {
		return err
	}
	brooksProfile := &identity.DoctorProfile{
		UserID: doctorBrooks.ID, Specialty: "Internal Medicine", Hospital: "Riverside Medical Center",
		ExperienceYears: 8, LicenseNumber: strPtr("MD-51877"),
		AcceptingNewPatients: true, Languages: []string{"English", "Spanish"},
		Rating: 4.6, ReviewCount: 87,
	}
	if err := doctors.Create(ctx, brooksProfile); err != nil {
		return err
	}

	// Patients
	patientMorgan := &identity.User{
		Email: "demo-patient@prescribeme.dev", Username: "demo-patient",
		FullName: "Alex Morgan", PasswordHash: hash,
		IsActive: true, IsVerified: true, Role: auth.RolePatient,
	}
	if err := users.Create(ctx, patientMorgan); err != nil {
		return err
	}
	morganProfile := &identity.PatientProfile{
		UserID: patientMorgan.ID, Age: intPtr(34), Gender: strPtr("female"),
		Phone: strPtr("+1-555-0142"), Address: strPtr("18 Birchwood Lane"),
		BloodType: strPtr("A+"), Height: strPtr("5'7\""), Weight: strPtr("140 lbs"),
		Status: "active", LastVisit: timePtr(now.AddDate(0, -1, -4)),
	}
	if err := patients.Create(ctx, morganProfile); err != nil {
		return err
	}

	patientShah := &identity.User{
		Email: "demo-patient-2@prescribeme.dev", Username: "demo-patient-2",
		FullName: "Priya Shah", PasswordHash: hash,
		IsActive: true, IsVerified: true, Role: auth.RolePatient,
	}
	if err := users.Create(ctx, patientShah); err != nil {
		return err
	}
	shahProfile := &identity.PatientProfile{
		UserID: patientShah.ID, Age: intPtr(52), Gender: strPtr("female"),
		Phone: strPtr("+1-555-0177"), BloodType: strPtr("O-"),
		Status: "active", LastVisit: timePtr(now.AddDate(0, -3, 0)),
	}
	if err := patients.Create(ctx, shahProfile); err != nil {
		return err
	}

	// Pharmacies
	pharmacies := prescription.NewPharmacyRepoPG(pool)
	mainStreet := &prescription.Pharmacy{
		Name: "CVS Pharmacy - Main Street", Address: "123 Main Street",
		Phone: strPtr("+1-555-0101"), Hours: strPtr("8:00 AM - 10:00 PM"),
	}
	if err := pharmacies.Create(ctx, mainStreet); err != nil {
		return err
	}
	if err := pharmacies.Create(ctx, &prescription.Pharmacy{
		Name: "Walgreens - Oak Avenue", Address: "456 Oak Avenue",
		Phone: strPtr("+1-555-0102"), Hours: strPtr("24 hours"),
	}); err != nil {
		return err
	}

	// Prescriptions
	prescriptions := prescription.NewRepoPG(pool)
	if err := prescriptions.Create(ctx, &prescription.Prescription{
		PatientID: morganProfile.ID, DoctorID: chenProfile.ID,
		Medication: "Lisinopril", GenericName: strPtr("lisinopril"),
		Dosage: "10mg", Frequency: "Once daily", Duration: "90 days",
		PrescribedDate: now.AddDate(0, 0, -20), ExpiryDate: timePtr(now.AddDate(0, 0, 70)),
		Status: "active", Instructions: strPtr("Take in the morning with water"),
		Refills: 3, RefillsRemaining: 2,
		PharmacyName: strPtr(mainStreet.Name), PharmacyAddress: strPtr(mainStreet.Address),
		PharmacyPhone: mainStreet.Phone,
		Warnings:      []string{"May cause dizziness"},
		SideEffects:   []string{"Dry cough", "Headache"},
	}); err != nil {
		return err
	}
	if err := prescriptions.Create(ctx, &prescription.Prescription{
		PatientID: shahProfile.ID, DoctorID: brooksProfile.ID,
		Medication: "Metformin", GenericName: strPtr("metformin"),
		Dosage: "500mg", Frequency: "Twice daily", Duration: "180 days",
		PrescribedDate: now.AddDate(0, -2, 0), ExpiryDate: timePtr(now.AddDate(0, 4, 0)),
		Status: "active", Refills: 5, RefillsRemaining: 4,
		PharmacyName: strPtr(mainStreet.Name), PharmacyAddress: strPtr(mainStreet.Address),
	}); err != nil {
		return err
	}

	// Clinical records
	conditions := clinical.NewConditionRepoPG(pool)
	if err := conditions.Create(ctx, &clinical.Condition{
		PatientID: morganProfile.ID, DoctorID: chenProfile.ID,
		Name: "Hypertension", DiagnosedDate: now.AddDate(-1, 0, 0),
		Status: "active", Severity: "moderate",
		Notes: strPtr("Well controlled with medication"),
	}); err != nil {
		return err
	}

	allergies := clinical.NewAllergyRepoPG(pool)
	if err := allergies.Create(ctx, &clinical.Allergy{
		PatientID: morganProfile.ID, Allergen: "Penicillin",
		Reaction: "Hives", Severity: "severe", DiagnosedDate: now.AddDate(-10, 0, 0),
	}); err != nil {
		return err
	}

	immunizations := clinical.NewImmunizationRepoPG(pool)
	if err := immunizations.Create(ctx, &clinical.Immunization{
		PatientID: morganProfile.ID, Vaccine: "Influenza",
		Date: now.AddDate(0, -10, 0), NextDue: timePtr(now.AddDate(0, 2, 0)),
		Provider: "City General Hospital",
	}); err != nil {
		return err
	}

	labs := clinical.NewLabResultRepoPG(pool)
	if err := labs.Create(ctx, &clinical.LabResult{
		PatientID: morganProfile.ID, OrderedBy: chenProfile.ID,
		Test: "Lipid Panel", Date: now.AddDate(0, -1, 0),
		Result: "LDL 98 mg/dL", Status: "normal",
	}); err != nil {
		return err
	}

	// Appointments
	appointments := scheduling.NewRepoPG(pool)
	if err := appointments.Create(ctx, &scheduling.Appointment{
		PatientID: morganProfile.ID, DoctorID: chenProfile.ID,
		Date: now.AddDate(0, 0, 7).Truncate(time.Hour), Type: "Follow-up",
		Status: "confirmed", DurationMinutes: 30,
	}); err != nil {
		return err
	}

	// Notifications
	notifications := notification.NewRepoPG(pool)
	if err := notifications.Create(ctx, &notification.Notification{
		UserID: patientMorgan.ID, Type: "prescription",
		Title:       "New prescription added",
		Description: "Lisinopril 10mg has been prescribed for you",
		Priority:    "medium", Timestamp: now.AddDate(0, 0, -20),
	}); err != nil {
		return err
	}
	if err := notifications.Create(ctx, &notification.Notification{
		UserID: patientMorgan.ID, Type: "appointment",
		Title:       "Appointment confirmed",
		Description: "Follow-up with Dr. Sarah Chen next week",
		Priority:    "high", Timestamp: now.AddDate(0, 0, -1),
	}); err != nil {
		return err
	}

	fmt.Println("Seeded demo data:")
	fmt.Println("  doctor:  demo-doctor@prescribeme.dev /", seedPassword)
	fmt.Println("  patient: demo-patient@prescribeme.dev /", seedPassword)
	return nil
}

func strPtr(s string) *string        { return &s }
func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }
