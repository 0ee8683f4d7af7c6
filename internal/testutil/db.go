// Package testutil provides a throwaway database and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blues/fundmagic/internal/database"
	"github.com/blues/fundmagic/internal/model"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var dbSeq atomic.Int64

// NewDB opens a migrated and seeded in-memory sqlite database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:fundmagic_test_%d?mode=memory&cache=shared&_time_format=sqlite", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedCategories(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

// CreateUser inserts an active user with the given name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *model.UserModel {
	t.Helper()

	user := &model.UserModel{
		Id:           uuid.NewString(),
		Name:         name,
		Email:        fmt.Sprintf("%s_%d@example.com", name, time.Now().UnixNano()),
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// ReloadProject reads a project row without children.
func ReloadProject(t *testing.T, db *gorm.DB, id string) model.ProjectModel {
	t.Helper()

	var p model.ProjectModel
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload project %s: %v", id, err)
	}
	return p
}

// ReloadUser reads a user row.
func ReloadUser(t *testing.T, db *gorm.DB, id string) model.UserModel {
	t.Helper()

	var u model.UserModel
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		t.Fatalf("reload user %s: %v", id, err)
	}
	return u
}

// CountRows counts rows of the given model matching the condition.
func CountRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	if err := db.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
