package domain

import (
	"errors"
	"fmt"
)

// FailureKind categorizes a download failure for user-facing reporting.
type FailureKind string

const (
	KindUnsupported  FailureKind = "unsupported"
	KindPrivate      FailureKind = "private_or_unavailable"
	KindRequiresAuth FailureKind = "requires_auth"
	KindFileTooSmall FailureKind = "file_too_small"
	KindFileNotFound FailureKind = "file_not_found"
	KindNetworkError FailureKind = "network_error"
	KindUnknown      FailureKind = "unknown"
)

// Canonical user-facing messages, kept in pt-BR to match the bot's audience.
const (
	MsgUnsupported   = "URL não suportada. Apenas Instagram e TikTok são suportados."
	MsgNoInfo        = "Não foi possível extrair informações do vídeo. Verifique se o link é válido e público."
	MsgFileNotFound  = "O arquivo não foi encontrado após o download."
	MsgFileTooSmall  = "Arquivo baixado é muito pequeno, provavelmente inválido."
	MsgPrivate       = "Este vídeo é privado e não pode ser baixado."
	MsgUnavailable   = "Este vídeo não está disponível. Pode ter sido removido ou está privado."
	MsgRequiresLogin = "Este vídeo requer login. Apenas vídeos públicos podem ser baixados."
	MsgAltFailed     = "Método alternativo de download também falhou."
)

// DownloadFailure is the single failure type crossing the orchestrator
// boundary. Message is already user-presentable; Detail carries the raw
// diagnostic for logs and never reaches the end user.
type DownloadFailure struct {
	Kind     FailureKind
	Message  string
	Detail   string
	Strategy Strategy
}

func (f *DownloadFailure) Error() string {
	return f.Message
}

// NewFailure builds a DownloadFailure with no extra diagnostic detail.
func NewFailure(kind FailureKind, strategy Strategy, message string) *DownloadFailure {
	return &DownloadFailure{Kind: kind, Message: message, Strategy: strategy}
}

// Failuref builds a DownloadFailure with a formatted user message that doubles
// as the diagnostic detail.
func Failuref(kind FailureKind, strategy Strategy, format string, args ...any) *DownloadFailure {
	msg := fmt.Sprintf(format, args...)
	return &DownloadFailure{Kind: kind, Message: msg, Detail: msg, Strategy: strategy}
}

// WithDetail attaches a raw diagnostic string for internal logging.
func (f *DownloadFailure) WithDetail(detail string) *DownloadFailure {
	f.Detail = detail
	return f
}

// AsFailure extracts a DownloadFailure from an error chain.
func AsFailure(err error) (*DownloadFailure, bool) {
	var f *DownloadFailure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
