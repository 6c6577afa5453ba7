package mockapi

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jrsteele09/drivesim-admin/admin"
)

const DefaultAdminEmail = "admin@drivesim.local"

// Bootstrap creates the admin account and a small demo data set. When password is
// empty a random one is generated and returned.
func (s *Server) Bootstrap(adminEmail, password string) (generatedPassword string, err error) {
	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	generatedPassword = password
	if generatedPassword == "" {
		passwordBytes := make([]byte, 12)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[Server Bootstrap] failed to generate password: %w", err)
		}
		generatedPassword = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	adminUser, err := s.AddUser(admin.User{Email: adminEmail, FirstName: "Admin", LastName: "User"}, generatedPassword)
	if err != nil {
		return "", fmt.Errorf("[Server Bootstrap] failed to create admin: %w", err)
	}
	learner, err := s.AddUser(admin.User{
		Email:        "learner@drivesim.local",
		FirstName:    "Sam",
		LastName:     "Learner",
		Transmission: admin.TransmissionManual,
	}, generatedPassword)
	if err != nil {
		return "", fmt.Errorf("[Server Bootstrap] failed to create learner: %w", err)
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	city := s.AddSession(admin.TrainingSession{
		Scenario: admin.Scenario{ScenarioID: "city-01", Name: "City Centre", EnvironmentType: "URBAN", Difficulty: admin.DifficultyMedium},
		Location: "Bay 1",
		Date:     admin.Date{Time: day.AddDate(0, 0, 1)},
	})
	s.AddSession(admin.TrainingSession{
		Scenario: admin.Scenario{ScenarioID: "motorway-01", Name: "Motorway Merge", EnvironmentType: "HIGHWAY", Difficulty: admin.DifficultyHard},
		Location: "Bay 2",
		Date:     admin.Date{Time: day.AddDate(0, 0, 3)},
	})

	if _, err := s.AddRegistration(admin.Registration{Paid: true, TransmissionType: admin.TransmissionManual}, learner.ID, city.ID); err != nil {
		return "", fmt.Errorf("[Server Bootstrap] failed to create registration: %w", err)
	}

	s.logger.Info().Str("email", adminUser.Email).Msg("admin account ready")
	return generatedPassword, nil
}
