package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Identity ──────────────────────────────────────────────────────
	ErrOwnerRequired ErrCode = "OWNER_REQUIRED"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrNoActiveSession      ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionActive        ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrInvalidTransition    ErrCode = "INVALID_TRANSITION"
	ErrProgressNotSaved     ErrCode = "PROGRESS_NOT_SAVED"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrNoModulesAvailable   ErrCode = "NO_MODULES_AVAILABLE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Identity ──────────────────────────────────────────────────────
	case ErrOwnerRequired:
		return "Identitas peserta diperlukan."

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrNoActiveSession:
		return "Tidak ada sesi ujian yang aktif."
	case ErrSessionActive:
		return "Sesi ujian sudah berjalan."
	case ErrInvalidTransition:
		return "Tindakan ini tidak dapat dilakukan pada status sesi saat ini."
	case ErrProgressNotSaved:
		return "Progres ujian gagal disimpan. Silakan coba lagi."
	case ErrConfirmationRequired:
		return "Konfirmasi diperlukan untuk menghentikan ujian."
	case ErrNoModulesAvailable:
		return "Tidak ada modul aktif yang tersedia."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
