package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type runRecord struct {
	bun.BaseModel `bun:"table:contact_sync_runs,alias:csr"`

	ID          string     `bun:"id,pk"`
	InputPath   string     `bun:"input_path,notnull"`
	OutputPath  string     `bun:"output_path,notnull"`
	Status      string     `bun:"status,notnull"`
	TotalRows   int        `bun:"total_rows,notnull"`
	OKRows      int        `bun:"ok_rows,notnull"`
	ErrorRows   int        `bun:"error_rows,notnull"`
	SkippedRows int        `bun:"skipped_rows,notnull"`
	FailedRows  int        `bun:"failed_rows,notnull"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	FinishedAt  *time.Time `bun:"finished_at,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type rowRecord struct {
	bun.BaseModel `bun:"table:contact_sync_rows,alias:csrw"`

	ID               string    `bun:"id,pk"`
	RunID            string    `bun:"run_id,notnull"`
	LineNumber       int       `bun:"line_number,notnull"`
	ExternalNetwork  string    `bun:"external_network,notnull"`
	ContactAction    string    `bun:"contact_action,notnull"`
	ContactFirstName string    `bun:"contact_first_name,notnull"`
	ContactLastName  string    `bun:"contact_last_name,notnull"`
	ContactCompany   string    `bun:"contact_company,notnull"`
	ContactEmail     string    `bun:"contact_email,notnull"`
	ContactPhone     string    `bun:"contact_phone,notnull"`
	AdvisorEmailList string    `bun:"advisor_email_list,notnull"`
	State            string    `bun:"state,notnull"`
	Status           string    `bun:"status,notnull"`
	Error            string    `bun:"error,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
