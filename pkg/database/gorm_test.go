package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormLogger "gorm.io/gorm/logger"
)

func TestConfig_DSN(t *testing.T) {
	c := &Config{Host: "db", Port: 5432, User: "churn", Password: "pw", Database: "churn", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=churn password=pw dbname=churn sslmode=disable TimeZone=UTC", c.DSN())
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Silent, gormLogLevel("SILENT"))
	assert.Equal(t, gormLogger.Info, gormLogLevel("info"))
	assert.Equal(t, gormLogger.Warn, gormLogLevel(""))
}
