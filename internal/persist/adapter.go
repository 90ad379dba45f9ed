package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/memeverse/internal/logger"
)

// ErrPersistenceParse marks a stored value that could not be decoded.
var ErrPersistenceParse = errors.New("persistence parse error")

// envelopeVersion is the current layout of stored values.
const envelopeVersion = 1

const profileKey = "userProfile"

type envelope struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Profile is the user's editable profile.
type Profile struct {
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

// Adapter reads and writes typed client records over a KV.
// Values that fail to decode read as absent.
type Adapter struct {
	kv KV
}

// NewAdapter creates an adapter over kv.
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

func commentsKey(id string) string { return "comments-" + id }
func likedKey(id string) string    { return "liked-" + id }

// Comments returns the comments stored for meme id, empty when none.
func (a *Adapter) Comments(ctx context.Context, id string) ([]string, error) {
	var comments []string
	found, err := a.read(ctx, commentsKey(id), &comments)
	if err != nil {
		return nil, err
	}
	if !found || comments == nil {
		comments = []string{}
	}
	return comments, nil
}

// SetComments replaces the comments stored for meme id.
func (a *Adapter) SetComments(ctx context.Context, id string, comments []string) error {
	if comments == nil {
		comments = []string{}
	}
	return a.write(ctx, commentsKey(id), comments)
}

// AppendComment adds text to the comments of meme id and returns the new list.
func (a *Adapter) AppendComment(ctx context.Context, id, text string) ([]string, error) {
	comments, err := a.Comments(ctx, id)
	if err != nil {
		return nil, err
	}
	comments = append(comments, text)
	if err := a.SetComments(ctx, id, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Liked reports the stored liked flag for meme id.
func (a *Adapter) Liked(ctx context.Context, id string) (bool, error) {
	var liked bool
	found, err := a.read(ctx, likedKey(id), &liked)
	if err != nil || !found {
		return false, err
	}
	return liked, nil
}

// SetLiked stores the liked flag for meme id.
func (a *Adapter) SetLiked(ctx context.Context, id string, liked bool) error {
	return a.write(ctx, likedKey(id), liked)
}

// Profile returns the stored profile, zero-valued when none.
func (a *Adapter) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	found, err := a.read(ctx, profileKey, &p)
	if err != nil || !found {
		return Profile{}, err
	}
	return p, nil
}

// SetProfile rewrites the whole profile record.
func (a *Adapter) SetProfile(ctx context.Context, p Profile) error {
	return a.write(ctx, profileKey, p)
}

// read loads key into dst. Undecodable values are logged and reported as
// absent; only KV failures are returned.
func (a *Adapter) read(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, ok, err := a.kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	legacy, err := decode(raw, dst)
	if err != nil {
		logger.FromContext(ctx).WithField("key", key).WithError(err).Warn("Ignoring unreadable stored value")
		return false, nil
	}

	if legacy {
		if err := a.write(ctx, key, dst); err != nil {
			logger.FromContext(ctx).WithField("key", key).WithError(err).Warn("Failed to migrate stored value")
		}
	}
	return true, nil
}

func (a *Adapter) write(ctx context.Context, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	data, err := json.Marshal(envelope{Version: envelopeVersion, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return a.kv.Set(ctx, key, string(data))
}

// decode unwraps a versioned envelope into dst. A value written before
// envelopes existed is decoded as a bare payload and reported as legacy.
func decode(raw string, dst interface{}) (legacy bool, err error) {
	var env envelope
	if json.Unmarshal([]byte(raw), &env) == nil && env.Version != 0 {
		if env.Version != envelopeVersion {
			return false, fmt.Errorf("%w: unsupported version %d", ErrPersistenceParse, env.Version)
		}
		if err := json.Unmarshal(env.Payload, dst); err != nil {
			return false, fmt.Errorf("%w: %v", ErrPersistenceParse, err)
		}
		return false, nil
	}

	if strings.TrimSpace(raw) == "" {
		return false, fmt.Errorf("%w: empty value", ErrPersistenceParse)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistenceParse, err)
	}
	return true, nil
}
