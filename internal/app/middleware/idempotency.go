package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"luxrent/internal/app/commands"
)

// IdempotentCommand is a command a client may safely resend under the same
// key. ResultPrototype returns a pointer the stored result is decoded into.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key     string
	Command string
	// Fingerprint is a digest of the command body the key was first used with.
	Fingerprint string
	Payload     []byte
	// InFlight marks a reservation whose command has not finished yet.
	InFlight   bool
	OccurredAt time.Time
}

// ReservationLease is how long an unfinished reservation holds its key. After
// that a new attempt may take the key over, so a crashed worker does not lock
// the client out until the record expires.
const ReservationLease = time.Minute

// IdempotencyStore must make Reserve atomic: of two concurrent reservations of
// one key exactly one succeeds, and the other gets the record holding the key.
type IdempotencyStore interface {
	Reserve(ctx context.Context, rec IdempotencyRecord) (held IdempotencyRecord, reserved bool, err error)
	Complete(ctx context.Context, rec IdempotencyRecord) error
	Release(ctx context.Context, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
	// ErrIdempotencyKeyReused means the key was first used with another
	// command or with a different body.
	ErrIdempotencyKeyReused = errors.New("middleware: idempotency key reused for a different command")
	// ErrIdempotencyInFlight means another request with the same key is still
	// running.
	ErrIdempotencyInFlight = errors.New("middleware: request with this idempotency key is in progress")
)

// Idempotency replays the stored result of a successful command when the same
// key arrives again. The key is reserved before the command runs, so a
// concurrent duplicate gets ErrIdempotencyInFlight instead of running twice.
// Failures release the key and the client may retry with it.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			fingerprint, err := fingerprintOf(codec, cmd)
			if err != nil {
				return nil, err
			}
			claim := IdempotencyRecord{
				Key:         idCmd.IdempotencyKey(),
				Command:     cmd.Key(),
				Fingerprint: fingerprint,
				InFlight:    true,
				OccurredAt:  time.Now().UTC(),
			}
			held, reserved, err := store.Reserve(ctx, claim)
			if err != nil {
				return nil, err
			}
			if !reserved {
				return replay(codec, idCmd, fingerprint, held)
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, release(ctx, store, claim.Key, err)
			}
			rec := claim
			rec.InFlight = false
			rec.OccurredAt = time.Now().UTC()
			if result != nil {
				if rec.Payload, err = codec.Encode(result); err != nil {
					return nil, release(ctx, store, claim.Key, fmt.Errorf("middleware: encode result of %s: %w", cmd.Key(), err))
				}
			}
			if err := store.Complete(ctx, rec); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

// release frees the key after a failed attempt so the client can retry it.
func release(ctx context.Context, store IdempotencyStore, key string, cause error) error {
	if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func replay(codec ResultCodec, cmd IdempotentCommand, fingerprint string, rec IdempotencyRecord) (any, error) {
	if rec.Command != "" && rec.Command != cmd.Key() {
		return nil, ErrIdempotencyKeyReused
	}
	if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
		return nil, ErrIdempotencyKeyReused
	}
	if rec.InFlight {
		return nil, ErrIdempotencyInFlight
	}
	out := cmd.ResultPrototype()
	if out == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return out, nil
	}
	if err := codec.Decode(rec.Payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fingerprintOf hashes the encoded command. Fields that differ between
// retries, such as generated ids, must be excluded from the encoding.
func fingerprintOf(codec ResultCodec, cmd commands.Command) (string, error) {
	body, err := codec.Encode(cmd)
	if err != nil {
		return "", fmt.Errorf("middleware: fingerprint %s: %w", cmd.Key(), err)
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
