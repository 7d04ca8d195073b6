package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the catalog schema
var DatabaseModels = []interface{}{
	&CatalogInfo{},
	&ModelRecord{},
	&ModeRecord{},
	&CompileRun{},
}

// CatalogInfo describes the catalog instance itself.
type CatalogInfo struct {
	gorm.Model
	ToolName    string `json:"toolName" gorm:"size:127"`
	ToolVersion string `json:"toolVersion" gorm:"size:63"`
	Description string `json:"description" gorm:"size:255"`
}

// ModelRecord is one compiled model. Payload holds the full compiled
// artifact as JSON; the scalar columns exist so listings never have to
// deserialize it.
type ModelRecord struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	Name       string         `json:"name" gorm:"size:255;uniqueIndex"`
	DocSHA256  string         `json:"docSha256" gorm:"size:64;index"`
	Tool       string         `json:"tool" gorm:"size:63"`
	NX         int            `json:"nx"`
	NU         int            `json:"nu"`
	Modes      int            `json:"modes"`
	CompiledAt time.Time      `json:"compiledAt"`
	Warnings   datatypes.JSON `json:"warnings"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// ModeRecord is a per-mode summary row, one per hybrid mode of a model.
type ModeRecord struct {
	ID       uint           `json:"id" gorm:"primarykey"`
	ModelID  uint           `json:"modelId" gorm:"index"`
	Name     string         `json:"name" gorm:"size:255"`
	Active   datatypes.JSON `json:"active"` // active contact pair indices
	Guards   int            `json:"guards"` // guard hyperplane count
	HasReset bool           `json:"hasReset"`
}

// CompileRun records one invocation of the compiler against the catalog.
type CompileRun struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	ModelName string    `json:"modelName" gorm:"size:255;index"`
	DocSHA256 string    `json:"docSha256" gorm:"size:64"`
	Duration  float64   `json:"durationSeconds"`
	Warnings  int       `json:"warnings"`
	CreatedAt time.Time `json:"createdAt"`
}
