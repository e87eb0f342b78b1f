package server

// Request types for WebSocket commands with validation tags.
// These types define the expected input for each command and use
// go-playground/validator struct tags for automatic validation.

// --- Device setup ---

// SpeakerSelectRequest is the request body for setup/speaker.
type SpeakerSelectRequest struct {
	SpeakerID string `json:"speaker_id" validate:"omitempty,max=256"`
}

// --- Interview lifecycle ---

// InterviewStartRequest is the request body for interview/start.
type InterviewStartRequest struct {
	Role                 string   `json:"role" validate:"required,max=200"`
	InterviewType        string   `json:"interview_type" validate:"required,max=100"`
	DurationMinutes      int      `json:"duration_minutes" validate:"required,gte=1,lte=240"`
	Skills               []string `json:"skills" validate:"required,min=1,max=20,dive,max=100"`
	ScheduledInterviewID string   `json:"scheduled_interview_id" validate:"omitempty,max=100"`
	CredentialID         string   `json:"credential_id" validate:"omitempty,max=100"`
}

// AnswerSubmitRequest is the request body for interview/answer.
type AnswerSubmitRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// InterviewEndRequest is the request body for interview/end.
type InterviewEndRequest struct {
	Confirmed bool `json:"confirmed"`
}

// --- Answer recording ---

// TranscriptEditRequest is the request body for recording/edit.
type TranscriptEditRequest struct {
	Text string `json:"text" validate:"max=20000"`
}

// --- Integrity ---

// FocusReportRequest is the request body for integrity/focus.
type FocusReportRequest struct {
	Kind string `json:"kind" validate:"required,oneof=visibility_hidden window_blur"`
}

// --- Settings ---

// SpeechUpdateRequest is the request body for settings/speech/update.
type SpeechUpdateRequest struct {
	AutoSpeak *bool `json:"auto_speak"`
}

// IntegrityUpdateRequest is the request body for settings/integrity/update.
type IntegrityUpdateRequest struct {
	NoiseThreshold *float64 `json:"noise_threshold" validate:"omitempty,gte=0,lte=100"`
}

// BackendUpdateRequest is the request body for settings/backend/update.
type BackendUpdateRequest struct {
	BaseURL      string `json:"base_url" validate:"omitempty,url,max=2048"`
	TokenURL     string `json:"token_url" validate:"omitempty,url,max=2048"`
	ClientID     string `json:"client_id" validate:"omitempty,max=200"`
	ClientSecret string `json:"client_secret" validate:"omitempty,max=500"`
}

// ArchiveUpdateRequest is the request body for settings/archive/update.
type ArchiveUpdateRequest struct {
	Endpoint        string `json:"endpoint" validate:"omitempty,max=2048"`
	Bucket          string `json:"bucket" validate:"omitempty,max=63"`
	AccessKeyID     string `json:"access_key_id" validate:"omitempty,max=128"`
	SecretAccessKey string `json:"secret_access_key" validate:"omitempty,max=256"`
	Prefix          string `json:"prefix" validate:"omitempty,max=512"`
}

// ArchiveTestRequest is the request body for settings/archive/test.
type ArchiveTestRequest struct {
	Endpoint        string `json:"endpoint" validate:"omitempty,max=2048"`
	Bucket          string `json:"bucket" validate:"required,max=63"`
	AccessKeyID     string `json:"access_key_id" validate:"required,max=128"`
	SecretAccessKey string `json:"secret_access_key" validate:"required,max=256"`
}
