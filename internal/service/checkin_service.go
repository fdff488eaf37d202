package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prasetyo/checkin-bot/internal/domain"
)

// RecordWriter appends finalized check-ins to the external store.
type RecordWriter interface {
	AppendCheckin(ctx context.Context, record *domain.CheckinRecord) error
}

// AllowListSource fetches the current set of authorized usernames. The list
// is mutable on the backend, so it is fetched fresh on every check.
type AllowListSource interface {
	FetchAllowList(ctx context.Context) ([]string, error)
}

const (
	replyGreeting = "Halo! Gunakan /checkin untuk mulai check-in toko, atau /help untuk daftar perintah."

	replyHelp = `Perintah yang tersedia:
/checkin - Mulai check-in toko
/cancel - Batalkan check-in yang sedang berjalan
/help - Tampilkan bantuan ini

Alur check-in: nama toko, wilayah toko, lalu bagikan lokasi toko lewat fitur share location.`

	replyDontUnderstand  = "Maaf, saya tidak mengerti. Gunakan /start atau /checkin."
	replyUnknownCommand  = "Perintah tidak dikenal. Lanjutkan check-in Anda, atau gunakan /cancel untuk membatalkan."
	replyNotAuthorized   = "Maaf, Anda tidak terdaftar untuk check-in. Hubungi admin untuk didaftarkan."
	replyAuthUnavailable = "Tidak dapat memeriksa otorisasi saat ini. Silakan coba lagi nanti."
	replyCancelled       = "Check-in dibatalkan."
	replyAppendFailed    = "Gagal menyimpan check-in. Silakan ulangi dengan /checkin."
	replyInternalError   = "Terjadi kesalahan. Silakan coba lagi."

	promptStoreName     = "Silakan ketik nama toko untuk check-in."
	promptStoreRegion   = "Ketik wilayah toko."
	promptLocation      = "Sekarang bagikan lokasi toko lewat fitur share location."
	promptLocationAgain = "Mohon bagikan lokasi toko lewat fitur share location, atau gunakan /cancel untuk membatalkan."

	replySavedFmt = "Check-in disimpan!\nNama toko: %s\nWilayah: %s\nWaktu: %s"
)

// CheckinService drives the per-user check-in conversation: it authorizes
// entry, advances sessions step by step, and finalizes a completed session
// into one appended spreadsheet row.
type CheckinService struct {
	sessions domain.SessionRepository
	sheet    RecordWriter
	allow    AllowListSource
	logger   *zap.Logger
	now      func() time.Time
}

// NewCheckinService creates a new CheckinService
func NewCheckinService(sessions domain.SessionRepository, sheet RecordWriter, allow AllowListSource, logger *zap.Logger) *CheckinService {
	return &CheckinService{
		sessions: sessions,
		sheet:    sheet,
		allow:    allow,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch routes one normalized incoming message and returns the reply to
// send back, which may be empty. A returned error is internal: the caller
// logs it but other users' messages are unaffected.
func (s *CheckinService) Dispatch(ctx context.Context, in *domain.Incoming) (string, error) {
	switch in.Kind {
	case domain.KindText, domain.KindLocation, domain.KindCommand:
	default:
		// Malformed inbound event: dropped without a user-facing reply.
		return "", fmt.Errorf("unknown message kind %d", in.Kind)
	}

	session, err := s.sessions.Get(in.UserID)
	if err != nil {
		return replyInternalError, fmt.Errorf("failed to get session: %w", err)
	}

	if in.Kind == domain.KindCommand {
		return s.handleCommand(ctx, in, session)
	}

	if session == nil {
		return replyDontUnderstand, nil
	}

	return s.handleStep(ctx, in, session)
}

func (s *CheckinService) handleCommand(ctx context.Context, in *domain.Incoming, session *domain.Session) (string, error) {
	switch in.Command {
	case "start":
		return replyGreeting, nil
	case "help":
		return replyHelp, nil
	case "checkin":
		return s.startCheckin(ctx, in, session)
	case "cancel":
		if session == nil {
			return replyDontUnderstand, nil
		}
		if err := s.sessions.Delete(session.OwnerID); err != nil {
			return replyInternalError, fmt.Errorf("failed to delete session: %w", err)
		}
		s.logger.Info("check-in cancelled",
			zap.Int64("owner_id", session.OwnerID),
			zap.Stringer("step", session.Step))
		return replyCancelled, nil
	default:
		if session == nil {
			return replyDontUnderstand, nil
		}
		// Mid-session an unrecognized command never falls through to the
		// step handler; the session stays untouched.
		return replyUnknownCommand, nil
	}
}

// startCheckin creates a fresh session for the user, replacing any session
// already in progress. The allow-list gate applies only when no session
// exists; a live session is proof of a prior positive check.
func (s *CheckinService) startCheckin(ctx context.Context, in *domain.Incoming, session *domain.Session) (string, error) {
	if session == nil {
		authorized, err := s.authorize(ctx, in.Username)
		if err != nil {
			// Fails closed: fetch failure authorizes no one.
			s.logger.Warn("allow list unavailable", zap.Error(err), zap.Int64("user_id", in.UserID))
			return replyAuthUnavailable, nil
		}
		if !authorized {
			s.logger.Info("check-in rejected",
				zap.Int64("user_id", in.UserID),
				zap.String("username", in.Username))
			return replyNotAuthorized, nil
		}
	}

	now := s.now()
	fresh := &domain.Session{
		OwnerID:   in.UserID,
		OwnerName: in.DisplayName,
		Step:      domain.StepStoreName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Save(fresh); err != nil {
		return replyInternalError, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("check-in started", zap.Int64("owner_id", in.UserID), zap.Bool("restart", session != nil))

	return promptStoreName, nil
}

// authorize tests allow-list membership by Telegram username, compared
// case-insensitively with any leading @ stripped. Accounts without a
// username are never authorized.
func (s *CheckinService) authorize(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}

	entries, err := s.allow.FetchAllowList(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch allow list: %w", err)
	}

	want := strings.ToLower(username)
	for _, entry := range entries {
		if strings.ToLower(strings.TrimPrefix(entry, "@")) == want {
			return true, nil
		}
	}

	return false, nil
}

func (s *CheckinService) handleStep(ctx context.Context, in *domain.Incoming, session *domain.Session) (string, error) {
	switch session.Step {
	case domain.StepStoreName:
		if in.Kind != domain.KindText || strings.TrimSpace(in.Text) == "" {
			return promptStoreName, nil
		}
		session.StoreName = in.Text
		return s.advance(session, domain.StepStoreRegion, promptStoreRegion)

	case domain.StepStoreRegion:
		if in.Kind != domain.KindText || strings.TrimSpace(in.Text) == "" {
			return promptStoreRegion, nil
		}
		session.StoreRegion = in.Text
		return s.advance(session, domain.StepLocation, promptLocation)

	case domain.StepLocation:
		if in.Kind != domain.KindLocation {
			// Wrong input kind here re-prompts; it never cancels.
			return promptLocationAgain, nil
		}
		return s.finalize(ctx, session, in.Latitude, in.Longitude)
	}

	return "", fmt.Errorf("session for user %d at unhandled step %d", session.OwnerID, session.Step)
}

// advance stores the captured field and moves the session to the next step.
// Values are stored verbatim.
func (s *CheckinService) advance(session *domain.Session, next domain.Step, prompt string) (string, error) {
	session.Step = next
	session.UpdatedAt = s.now()

	if err := s.sessions.Save(session); err != nil {
		return replyInternalError, fmt.Errorf("failed to save session: %w", err)
	}

	return prompt, nil
}

// finalize assembles the completed session into a CheckinRecord and appends
// it. The session is deleted whether or not the append succeeded; a failed
// append means the user restarts the whole flow.
func (s *CheckinService) finalize(ctx context.Context, session *domain.Session, lat, lon float64) (string, error) {
	record := &domain.CheckinRecord{
		Timestamp:   s.now(),
		OwnerName:   session.OwnerName,
		StoreName:   session.StoreName,
		StoreRegion: session.StoreRegion,
		Latitude:    lat,
		Longitude:   lon,
	}

	appendErr := s.sheet.AppendCheckin(ctx, record)

	if err := s.sessions.Delete(session.OwnerID); err != nil {
		s.logger.Error("failed to delete finalized session", zap.Error(err), zap.Int64("owner_id", session.OwnerID))
	}

	if appendErr != nil {
		s.logger.Error("failed to append check-in",
			zap.Error(appendErr),
			zap.Int64("owner_id", session.OwnerID),
			zap.String("store_name", record.StoreName))
		return replyAppendFailed, nil
	}

	s.logger.Info("check-in saved",
		zap.Int64("owner_id", session.OwnerID),
		zap.String("store_name", record.StoreName),
		zap.String("store_region", record.StoreRegion))

	return fmt.Sprintf(replySavedFmt,
		record.StoreName,
		record.StoreRegion,
		record.Timestamp.Format("2006-01-02 15:04:05"),
	), nil
}

// ExpireIdleSessions deletes sessions idle longer than ttl and returns the
// owner IDs of the expired sessions so the caller can notify them.
func (s *CheckinService) ExpireIdleSessions(ttl time.Duration) ([]int64, error) {
	expired, err := s.sessions.DeleteIdleBefore(s.now().Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to expire idle sessions: %w", err)
	}

	for _, ownerID := range expired {
		s.logger.Info("check-in expired", zap.Int64("owner_id", ownerID))
	}

	return expired, nil
}
