package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// Roles a User may carry.
const (
	RoleAdmin   = "admin"
	RoleUsuario = "usuario"
)

// Postulation statuses.
const (
	PostulationPending     = "Pendiente"
	PostulationReceived    = "Recibido"
	PostulationErrorUpload = "ErrorUpload"
)

// User account able to authenticate against the API.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_username_unique"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);default:'usuario'"`
	State        bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (User) TableName() string {
	return "users"
}

// UserUpdate is an append-only log of username changes, attributed to the
// admin who performed them.
type UserUpdate struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      uint      `gorm:"not null;index:idx_user_updates_user_id"`
	UsernameOld string    `gorm:"type:varchar(100);not null"`
	UsernameNew string    `gorm:"type:varchar(100);not null"`
	UpdatedBy   string    `gorm:"type:varchar(100);not null"`
	DateUpdate  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (UserUpdate) TableName() string {
	return "user_updates"
}

// PasswordChangeLog is an append-only log of password resets.
type PasswordChangeLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      uint      `gorm:"not null;index:idx_password_change_logs_user_id"`
	ChangedBy   string    `gorm:"type:varchar(100);not null"`
	DateChanged time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (PasswordChangeLog) TableName() string {
	return "password_change_logs"
}

// Area is a reference-data organizational unit owning job positions.
// Name uniqueness is enforced among active rows only; soft-deleted rows
// keep their name without blocking reuse.
type Area struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"type:varchar(255);not null;index:idx_areas_name"`
	State bool   `gorm:"default:true"`

	JobPositions []JobPosition `gorm:"foreignKey:AreaID;references:ID"`
}

func (Area) TableName() string {
	return "areas"
}

// JobPosition belongs to an Area.
type JobPosition struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"type:varchar(255);not null;index:idx_job_positions_name"`
	AreaID uint   `gorm:"not null;index:idx_job_positions_area_id"`
	State  bool   `gorm:"default:true"`

	Area *Area `gorm:"foreignKey:AreaID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (JobPosition) TableName() string {
	return "job_positions"
}

// ChargeProcess is one batch CV-intake campaign tied to a job position.
// Code is globally unique, derived from the owning user, the creation date
// and a per-user sequence. The remote drive folder holds the CVs the
// external engine evaluates.
type ChargeProcess struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Code           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_charge_processes_code_unique"`
	JobID          uint      `gorm:"not null;index:idx_charge_processes_job_id"`
	Reque          string    `gorm:"type:text"`
	Functions      string    `gorm:"type:text"`
	UserID         uint      `gorm:"not null;index:idx_charge_processes_user_id"`
	DriveFolderID  string    `gorm:"type:varchar(255)"`
	DriveFolderURL string    `gorm:"type:varchar(1024)"`
	CreateDate     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_charge_processes_create_date"`
	State          bool      `gorm:"default:true"`
	EndProcess     bool      `gorm:"default:false;not null"`
	IsProcessing   bool      `gorm:"default:false;not null"`
	FormURL        string    `gorm:"type:varchar(1024)"`
	FormToken      string    `gorm:"type:varchar(128)"`

	Job  *JobPosition `gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User *User        `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (ChargeProcess) TableName() string {
	return "charge_processes"
}

// Postulant is a candidate, keyed by national identity document number.
type Postulant struct {
	DNI       string    `gorm:"column:dni;type:varchar(50);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);index:idx_postulants_email"`
	Telf      string    `gorm:"type:varchar(50)"`
	Address   string    `gorm:"type:varchar(512)"`
	RegisDate time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	// Supplementary profile attributes extracted from the latest CV.
	YearsExper             *float64       `gorm:"type:float"`
	LevelEduca             string         `gorm:"type:varchar(100)"`
	Certif                 string         `gorm:"type:text"`
	Languages              datatypes.JSON `gorm:"type:json"`
	DifferentialAdvantages string         `gorm:"type:text"`

	CVURL         string `gorm:"column:cv_url;type:varchar(1024)"`
	CVDriveFileID string `gorm:"column:cv_drive_file_id;type:varchar(255);index:idx_postulants_cv_drive_file_id"`

	Postulations []Postulation `gorm:"foreignKey:PostulantDNI;references:DNI"`
}

func (Postulant) TableName() string {
	return "postulants"
}

// Postulation links one postulant to one charge process. Unique per pair.
type Postulation struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	PostulantDNI string    `gorm:"column:postulant_dni;type:varchar(50);not null;uniqueIndex:idx_postulations_dni_process,priority:1"`
	ProcessID    uint      `gorm:"not null;index:idx_postulations_process_id;uniqueIndex:idx_postulations_dni_process,priority:2"`
	Status       string    `gorm:"type:varchar(50);default:'Pendiente'"`
	AppliedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Postulant *Postulant     `gorm:"foreignKey:PostulantDNI;references:DNI;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Process   *ChargeProcess `gorm:"foreignKey:ProcessID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Postulation) TableName() string {
	return "postulations"
}

// EvaluacionCV is one evaluation-engine verdict for one CV file.
// Match is the engine score, MatchEval the manual adjustment and MatchTotal
// their 50/50 blend, recomputed whenever MatchEval is set. A row with
// CVProcesado=false is a placeholder capturing a processing failure.
type EvaluacionCV struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	Name            string    `gorm:"type:varchar(255)"`
	Match           float64   `gorm:"not null"`
	MatchEval       *float64  `gorm:"type:float"`
	MatchTotal      *float64  `gorm:"type:float"`
	Reason          string    `gorm:"type:text"`
	Functions       string    `gorm:"type:text"`
	Skills          string    `gorm:"type:text"`
	Summary         string    `gorm:"type:text"`
	PuestoID        uint      `gorm:"column:puesto_id;not null;index:idx_evaluaciones_puesto_id"`
	DNIPostulante   *string   `gorm:"column:dni_postulante;type:varchar(50);index:idx_evaluaciones_dni_postulante"`
	ChargeProcessID uint      `gorm:"not null;index:idx_evaluaciones_charge_process_id"`
	PostulationID   *uint     `gorm:"index:idx_evaluaciones_postulation_id"`
	DateCreate      time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_evaluaciones_date_create"`

	YearsExper             *float64 `gorm:"type:float"`
	LevelEduca             string   `gorm:"type:varchar(100)"`
	Certif                 string   `gorm:"type:text"`
	Languages              string   `gorm:"type:text"`
	DifferentialAdvantages string   `gorm:"type:text"`

	URLCV         string `gorm:"column:url_cv;type:varchar(1024);index:idx_evaluaciones_url_cv"`
	CVProcesado   bool   `gorm:"column:cv_procesado;default:false;not null"`
	NombreArchivo string `gorm:"column:nombre_archivo;type:varchar(512)"`
	CVEstado      string `gorm:"column:cv_estado;type:varchar(255)"`
	FlagShade     bool   `gorm:"column:flag_shade;default:false"`

	Postulant *Postulant     `gorm:"foreignKey:DNIPostulante;references:DNI;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Process   *ChargeProcess `gorm:"foreignKey:ChargeProcessID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (EvaluacionCV) TableName() string {
	return "evaluaciones_cv"
}

// BlendScores returns the 50/50 blend of the automatic match and a manual
// evaluator score, rounded to two decimals.
func BlendScores(match, matchEval float64) float64 {
	return math.Round((0.5*match+0.5*matchEval)*100) / 100
}
