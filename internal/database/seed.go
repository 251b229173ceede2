package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/models"
)

type seedJob struct {
	title       string
	description string
}

var seedCategories = []string{"Software", "Marketing", "Design", "Sales"}

var seedJobs = map[string][]seedJob{
	"Software": {
		{"Backend Developer", "Build and operate HTTP APIs"},
		{"Frontend Developer", "Build UIs with React"},
		{"Fullstack Developer", "Work on both backend and frontend"},
		{"DevOps Engineer", "CI/CD pipelines and infrastructure"},
	},
	"Marketing": {
		{"Digital Marketer", "Manage social media campaigns"},
		{"SEO Specialist", "Optimize website for search engines"},
		{"Content Strategist", "Create content strategies"},
	},
	"Design": {
		{"UI Designer", "Design web interfaces"},
		{"UX Researcher", "Conduct user research"},
		{"Graphic Designer", "Create visuals and graphics"},
	},
	"Sales": {
		{"Sales Manager", "Lead sales team"},
		{"Account Executive", "Handle client accounts"},
		{"Business Development", "Expand business opportunities"},
	},
}

var (
	seedLocations       = []string{"Remote", "New York", "San Francisco", "London", "Berlin"}
	seedEmploymentTypes = []models.EmploymentType{
		models.EmploymentFullTime, models.EmploymentPartTime, models.EmploymentContract,
		models.EmploymentInternship, models.EmploymentTemporary,
	}
)

type SeedResult struct {
	Users      int
	Categories int
	Jobs       int
}

// Seed inserts the demo admin, candidate, categories and jobs. Rows that
// already exist are left alone, so running it twice is harmless.
func Seed(db *gorm.DB) (SeedResult, error) {
	var result SeedResult
	err := db.Transaction(func(tx *gorm.DB) error {
		admin := models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, IsSuperuser: true}
		created, err := firstOrCreate(tx, &admin, models.User{Username: admin.Username})
		if err != nil {
			return err
		}
		result.Users += created

		candidate := models.User{Username: "user1", Email: "user1@example.com", Role: models.RoleCandidate}
		created, err = firstOrCreate(tx, &candidate, models.User{Username: candidate.Username})
		if err != nil {
			return err
		}
		result.Users += created

		i := 0
		for _, name := range seedCategories {
			category := models.Category{Name: name}
			created, err := firstOrCreate(tx, &category, models.Category{Name: name})
			if err != nil {
				return err
			}
			result.Categories += created

			for _, tmpl := range seedJobs[name] {
				job := models.Job{
					Title:          tmpl.title,
					Description:    tmpl.description,
					CategoryID:     category.ID,
					CreatedByID:    &admin.ID,
					Location:       seedLocations[i%len(seedLocations)],
					EmploymentType: seedEmploymentTypes[i%len(seedEmploymentTypes)],
					IsActive:       true,
				}
				i++
				created, err := firstOrCreate(tx, &job, models.Job{Title: tmpl.title, CategoryID: category.ID})
				if err != nil {
					return err
				}
				result.Jobs += created
			}
		}
		return nil
	})
	return result, err
}

func firstOrCreate(tx *gorm.DB, dest interface{}, where interface{}) (int, error) {
	res := tx.Where(where).FirstOrCreate(dest)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to seed %T: %w", dest, res.Error)
	}
	return int(res.RowsAffected), nil
}
