package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID  = "session_id"
	KeyCommand    = "command"
	KeyVersion    = "version"
	KeyUploadID   = "upload_id"
	KeyFilename   = "filename"
	KeyPath       = "path"
	KeyRanges     = "ranges"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyPending    = "pending"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr  { return slog.String(KeySessionID, id) }
func Command(name string) slog.Attr  { return slog.String(KeyCommand, name) }
func Version(v uint64) slog.Attr     { return slog.Uint64(KeyVersion, v) }
func UploadID(id string) slog.Attr   { return slog.String(KeyUploadID, id) }
func Filename(name string) slog.Attr { return slog.String(KeyFilename, name) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Ranges(n int) slog.Attr         { return slog.Int(KeyRanges, n) }
func Method(m string) slog.Attr      { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr      { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr  { return slog.String(KeyRemoteAddr, a) }
func Pending(n int) slog.Attr        { return slog.Int(KeyPending, n) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
