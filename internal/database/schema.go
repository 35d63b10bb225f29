package database

import (
	"goyfeed/internal/models"

	"gorm.io/gorm"
)

// SchemaStatus lists the schema objects the service relies on that are not
// present in the connected database.
type SchemaStatus struct {
	MissingTables      []string
	MissingIndexes     []string
	MissingConstraints []string
}

// Pending reports whether Migrate still has work to do.
func (s SchemaStatus) Pending() bool {
	return len(s.MissingTables)+len(s.MissingIndexes)+len(s.MissingConstraints) > 0
}

type schemaObject struct {
	model interface{}
	name  string
}

// The like and follow invariants depend on these rather than on application checks.
var (
	requiredIndexes = []schemaObject{
		{&models.Follow{}, "idx_follows_pair"},
		{&models.Like{}, "idx_likes_user_post"},
	}
	requiredConstraints = []schemaObject{
		{&models.Follow{}, "chk_follows_no_self"},
	}
)

// GetSchemaStatus compares the database against PersistentModels and the
// uniqueness and self-follow guards.
func GetSchemaStatus(db *gorm.DB) (SchemaStatus, error) {
	var status SchemaStatus
	m := db.Migrator()
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return status, err
		}
		if !m.HasTable(model) {
			status.MissingTables = append(status.MissingTables, stmt.Schema.Table)
		}
	}
	for _, idx := range requiredIndexes {
		if !m.HasIndex(idx.model, idx.name) {
			status.MissingIndexes = append(status.MissingIndexes, idx.name)
		}
	}
	for _, c := range requiredConstraints {
		if !m.HasConstraint(c.model, c.name) {
			status.MissingConstraints = append(status.MissingConstraints, c.name)
		}
	}
	return status, nil
}
