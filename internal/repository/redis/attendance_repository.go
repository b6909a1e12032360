package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

var ErrNoOpenEvent = errors.New("no open attendance event")

const leaveMaxAttempts = 3

type JoinInput struct {
	Ref      models.SessionRef
	UserID   string
	JoinedAt time.Time
	Source   models.AttendanceSource
}

type AttendanceRepository interface {
	// Join opens an attendance event unless one is already open, in which
	// case the open event is returned and created is false.
	Join(ctx context.Context, in JoinInput) (ev *models.AttendanceEvent, created bool, err error)
	// Leave closes the open event. Returns ErrNoOpenEvent when there is none.
	Leave(ctx context.Context, ref models.SessionRef, userID string, leftAt time.Time) (*models.AttendanceEvent, error)
	GetOpenEvent(ctx context.Context, ref models.SessionRef, userID string) (*models.AttendanceEvent, error)
	ListEvents(ctx context.Context, ref models.SessionRef, userID string) ([]models.AttendanceEvent, error)
}

// KEYS: events list, open pointer, new event hash
// ARGV: id, session id, kind, user id, joined_at, source, ttl seconds
var joinScript = redis.NewScript(`
local open = redis.call('GET', KEYS[2])
if open then
	return {open, 0}
end
redis.call('HSET', KEYS[3], 'id', ARGV[1], 'session_id', ARGV[2], 'kind', ARGV[3], 'user_id', ARGV[4], 'joined_at', ARGV[5], 'source', ARGV[6])
redis.call('EXPIRE', KEYS[3], ARGV[7])
redis.call('RPUSH', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[7])
redis.call('SET', KEYS[2], ARGV[1], 'EX', ARGV[7])
return {ARGV[1], 1}
`)

// KEYS: open pointer, event hash
// ARGV: expected open id, left_at
var leaveScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
local joined = tonumber(redis.call('HGET', KEYS[2], 'joined_at'))
local left = tonumber(ARGV[2])
local dur = 0
if joined and left > joined then
	dur = math.floor((left - joined) / 60)
end
redis.call('HSET', KEYS[2], 'left_at', ARGV[2], 'duration_minutes', dur)
redis.call('DEL', KEYS[1])
return 1
`)

type eventRecord struct {
	ID              string `redis:"id"`
	SessionID       string `redis:"session_id"`
	Kind            string `redis:"kind"`
	UserID          string `redis:"user_id"`
	JoinedAt        int64  `redis:"joined_at"`
	LeftAt          int64  `redis:"left_at"`
	DurationMinutes int    `redis:"duration_minutes"`
	Source          string `redis:"source"`
}

func (r eventRecord) toModel() models.AttendanceEvent {
	ev := models.AttendanceEvent{
		ID:              r.ID,
		SessionID:       r.SessionID,
		Kind:            models.SessionKind(r.Kind),
		UserID:          r.UserID,
		JoinedAt:        time.Unix(r.JoinedAt, 0).UTC(),
		DurationMinutes: r.DurationMinutes,
		Source:          models.AttendanceSource(r.Source),
	}
	if r.LeftAt > 0 {
		left := time.Unix(r.LeftAt, 0).UTC()
		ev.LeftAt = &left
	}
	return ev
}

type redisAttendanceRepository struct {
	cli *redis.Client
	ttl time.Duration
	l   logger.Logger
}

func NewRedisAttendanceRepository(cli *redis.Client, ttl time.Duration, l logger.Logger) AttendanceRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &redisAttendanceRepository{
		cli: cli,
		ttl: ttl,
		l:   l,
	}
}

func (r *redisAttendanceRepository) Join(ctx context.Context, in JoinInput) (*models.AttendanceEvent, bool, error) {
	id := uuid.NewString()
	source := in.Source
	if source == "" {
		source = models.AttendanceSourceAPI
	}

	keys := []string{
		r.eventsKey(in.Ref, in.UserID),
		r.openKey(in.Ref, in.UserID),
		r.eventKey(in.Ref, in.UserID, id),
	}
	res, err := joinScript.Run(ctx, r.cli, keys,
		id, in.Ref.ID, string(in.Ref.Kind), in.UserID, in.JoinedAt.Unix(), string(source), int64(r.ttl/time.Second),
	).Slice()
	if err != nil {
		r.l.Errorf(ctx, "repository.redis.attendance.Join: %v", err)
		return nil, false, err
	}
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected join script reply: %v", res)
	}

	evID, _ := res[0].(string)
	created, _ := res[1].(int64)

	ev, err := r.getEvent(ctx, in.Ref, in.UserID, evID)
	if err != nil {
		r.l.Errorf(ctx, "repository.redis.attendance.Join: %v", err)
		return nil, false, err
	}

	return ev, created == 1, nil
}

func (r *redisAttendanceRepository) Leave(ctx context.Context, ref models.SessionRef, userID string, leftAt time.Time) (*models.AttendanceEvent, error) {
	openKey := r.openKey(ref, userID)

	for attempt := 0; attempt < leaveMaxAttempts; attempt++ {
		openID, err := r.cli.Get(ctx, openKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrNoOpenEvent
			}
			r.l.Errorf(ctx, "repository.redis.attendance.Leave: %v", err)
			return nil, err
		}

		closed, err := leaveScript.Run(ctx, r.cli,
			[]string{openKey, r.eventKey(ref, userID, openID)},
			openID, leftAt.Unix(),
		).Int()
		if err != nil {
			r.l.Errorf(ctx, "repository.redis.attendance.Leave: %v", err)
			return nil, err
		}

		if closed == 1 {
			return r.getEvent(ctx, ref, userID, openID)
		}

		// the open event changed between GET and the script; reread
		r.l.Debugf(ctx, "repository.redis.attendance.Leave: open event %s changed, retrying", openID)
	}

	return nil, ErrNoOpenEvent
}

func (r *redisAttendanceRepository) GetOpenEvent(ctx context.Context, ref models.SessionRef, userID string) (*models.AttendanceEvent, error) {
	openID, err := r.cli.Get(ctx, r.openKey(ref, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoOpenEvent
		}
		r.l.Errorf(ctx, "repository.redis.attendance.GetOpenEvent: %v", err)
		return nil, err
	}

	return r.getEvent(ctx, ref, userID, openID)
}

func (r *redisAttendanceRepository) ListEvents(ctx context.Context, ref models.SessionRef, userID string) ([]models.AttendanceEvent, error) {
	ids, err := r.cli.LRange(ctx, r.eventsKey(ref, userID), 0, -1).Result()
	if err != nil {
		r.l.Errorf(ctx, "repository.redis.attendance.ListEvents: %v", err)
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.cli.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.eventKey(ref, userID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "repository.redis.attendance.ListEvents: %v", err)
		return nil, err
	}

	events := make([]models.AttendanceEvent, 0, len(ids))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			// expired independently of the list
			continue
		}
		var rec eventRecord
		if err := cmd.Scan(&rec); err != nil {
			r.l.Errorf(ctx, "repository.redis.attendance.ListEvents: %v", err)
			return nil, err
		}
		events = append(events, rec.toModel())
	}

	return events, nil
}

func (r *redisAttendanceRepository) getEvent(ctx context.Context, ref models.SessionRef, userID, id string) (*models.AttendanceEvent, error) {
	cmd := r.cli.HGetAll(ctx, r.eventKey(ref, userID, id))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrNoOpenEvent
	}

	var rec eventRecord
	if err := cmd.Scan(&rec); err != nil {
		return nil, err
	}

	ev := rec.toModel()
	return &ev, nil
}

// All keys of one (session, user) pair share a hash tag so the scripts stay
// on a single cluster slot.
func (r *redisAttendanceRepository) tag(ref models.SessionRef, userID string) string {
	return fmt.Sprintf("attendance:{%s:%s:%s}", ref.Kind, ref.ID, userID)
}

func (r *redisAttendanceRepository) eventsKey(ref models.SessionRef, userID string) string {
	return r.tag(ref, userID) + ":events"
}

func (r *redisAttendanceRepository) openKey(ref models.SessionRef, userID string) string {
	return r.tag(ref, userID) + ":open"
}

func (r *redisAttendanceRepository) eventKey(ref models.SessionRef, userID, id string) string {
	return r.tag(ref, userID) + ":event:" + id
}
