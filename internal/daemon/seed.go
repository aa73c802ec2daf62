package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/auth"
	"github.com/GoHR-Admin/GoHR-Admin/internal/config"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
)

// seed creates the initial admin account and the default required-on-hire
// document types on an empty database.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.Identity{}).Count(&count)

	if count == 0 {
		employee := models.Employee{
			Name:               "Administrator",
			RegistrationNumber: "EMP-0001",
			Status:             models.EmployeeActive,
		}

		if err := db.Create(&employee).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed admin employee")
			return
		}

		identity := models.Identity{
			Username:            "admin",
			Email:               "admin@localhost",
			Password:            models.HashPassword("changeme"),
			EmployeeID:          employee.ID,
			ProvisionalPassword: true,
		}

		if err := db.Create(&identity).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed admin identity")
			return
		}

		authService := auth.NewService(db)

		for _, permission := range []string{auth.PermDirectoryAdmin, auth.PermEmployeesManage} {
			if err := authService.Grant(identity.ID, permission); err != nil {
				log.Error().Err(err).Str("permission", permission).
					Msg("failed to grant seed permission")
			}
		}

		log.Info().Msg("seeded admin identity with provisional password")
	}

	db.Model(&models.DocumentType{}).Count(&count)

	if count == 0 {
		for _, name := range []string{"Identity document", "Proof of address", "Signed contract"} {
			if err := db.Create(&models.DocumentType{Name: name, RequiredOnHire: true}).Error; err != nil {
				log.Error().Err(err).Str("document_type", name).
					Msg("failed to seed document type")
			}
		}
	}
}
