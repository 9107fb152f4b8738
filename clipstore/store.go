/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package clipstore persists the clip catalog as a JSON file on local disk
// with audio payloads stored as flat files next to it.
// All catalog mutations are funneled through a request queue, which bounds
// the pressure on the disk; votes and difficulty ratings issued in a short
// window are additionally coalesced into batches. A store-level mutex keeps
// read/modify/write cycles of the catalog file from interleaving.
package clipstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/chorushub/go-clipkit/log"
	"github.com/chorushub/go-clipkit/requestqueue"
	"github.com/chorushub/go-clipkit/retry"
)

const (
	catalogFileName = "catalog.json"
	audioDirName    = "audio"

	batchKeyVotes   = "votes"
	batchKeyRatings = "ratings"
)

// Store provides access to the clip catalog.
type Store struct {
	dir      string
	audioDir string

	queue       *requestqueue.Queue
	retryPolicy retry.Policy
	logger      log.FieldLogger

	catalogMu sync.Mutex // guards the read/modify/write cycle of the catalog file
}

// StoreOpts contains optional parameters for Store.
type StoreOpts struct {
	// RetryPolicy is used for retrying catalog file writes.
	// A default exponential backoff policy is used if nil.
	RetryPolicy retry.Policy

	// Logger is used for logging. It can be nil, in this case, logging will be disabled.
	Logger log.FieldLogger
}

// NewStore creates a new Store persisting data under dir.
// All mutations go through the passed queue.
func NewStore(dir string, queue *requestqueue.Queue) (*Store, error) {
	return NewStoreWithOpts(dir, queue, StoreOpts{})
}

// NewStoreWithOpts creates a new Store with an ability to specify different optional parameters.
func NewStoreWithOpts(dir string, queue *requestqueue.Queue, opts StoreOpts) (*Store, error) {
	if opts.RetryPolicy == nil {
		opts.RetryPolicy = retry.NewDefaultExponentialBackoffPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	audioDir := filepath.Join(dir, audioDirName)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{
		dir:         dir,
		audioDir:    audioDir,
		queue:       queue,
		retryPolicy: opts.RetryPolicy,
		logger:      opts.Logger,
	}, nil
}

// SaveClip stores the audio payload and adds the clip to the catalog.
// The clip's ID, AudioFile, and CreatedAt fields are assigned here.
func (s *Store) SaveClip(ctx context.Context, clip Clip, audio []byte) (*Clip, error) {
	clip.ID = xid.New().String()
	clip.AudioFile = clip.ID + ".audio"
	clip.CreatedAt = time.Now().UTC()
	if clip.Votes == nil {
		clip.Votes = make(map[string]int)
	}
	if clip.Ratings == nil {
		clip.Ratings = make(map[string]int)
	}

	if err := os.WriteFile(filepath.Join(s.audioDir, clip.AudioFile), audio, 0o644); err != nil {
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	task := s.queue.Enqueue(ctx, func(ctx context.Context) (interface{}, error) {
		err := s.updateCatalog(ctx, func(cat *catalog) error {
			cat.Clips[clip.ID] = &clip
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &clip, nil
	}, requestqueue.EnqueueOpts{})

	result, err := task.Wait(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("clip saved", log.String("clip_id", clip.ID), log.String("language", clip.Language))
	return result.(*Clip), nil
}

// GetClip returns the clip with the given id, or ErrClipNotFound.
func (s *Store) GetClip(ctx context.Context, id string) (*Clip, error) {
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	clip, ok := cat.Clips[id]
	if !ok {
		return nil, ErrClipNotFound
	}
	return clip, nil
}

// ListClips returns all clips ordered by creation time, newest first.
func (s *Store) ListClips(ctx context.Context) ([]*Clip, error) {
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	clips := make([]*Clip, 0, len(cat.Clips))
	for _, clip := range cat.Clips {
		clips = append(clips, clip)
	}
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].CreatedAt.After(clips[j].CreatedAt)
	})
	return clips, nil
}

// AddVote records subject's vote (VoteUp or VoteDown) on the clip.
// Re-voting replaces the previous vote. Votes issued in a short window
// are coalesced into one batch.
func (s *Store) AddVote(ctx context.Context, clipID, subject string, value int) error {
	if value != VoteUp && value != VoteDown {
		return fmt.Errorf("vote value should be %d or %d, got %d", VoteUp, VoteDown, value)
	}
	task := s.queue.Enqueue(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, s.updateCatalog(ctx, func(cat *catalog) error {
			clip, ok := cat.Clips[clipID]
			if !ok {
				return ErrClipNotFound
			}
			if clip.Votes == nil {
				clip.Votes = make(map[string]int)
			}
			clip.Votes[subject] = value
			return nil
		})
	}, requestqueue.EnqueueOpts{BatchKey: batchKeyVotes})

	_, err := task.Wait(ctx)
	return err
}

// RateDifficulty records subject's difficulty rating of the clip.
// Re-rating replaces the previous rating. Ratings issued in a short window
// are coalesced into one batch.
func (s *Store) RateDifficulty(ctx context.Context, clipID, subject string, rating int) error {
	if rating < MinDifficulty || rating > MaxDifficulty {
		return fmt.Errorf("difficulty rating should be in [%d, %d], got %d", MinDifficulty, MaxDifficulty, rating)
	}
	task := s.queue.Enqueue(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, s.updateCatalog(ctx, func(cat *catalog) error {
			clip, ok := cat.Clips[clipID]
			if !ok {
				return ErrClipNotFound
			}
			if clip.Ratings == nil {
				clip.Ratings = make(map[string]int)
			}
			clip.Ratings[subject] = rating
			return nil
		})
	}, requestqueue.EnqueueOpts{BatchKey: batchKeyRatings})

	_, err := task.Wait(ctx)
	return err
}

// AudioPath returns the path of the clip's audio payload on disk.
func (s *Store) AudioPath(clip *Clip) string {
	return filepath.Join(s.audioDir, clip.AudioFile)
}

// isRetryableDiskErr treats filesystem errors as worth retrying and everything else,
// notably a decode error from a corrupted catalog file, as permanent.
func isRetryableDiskErr(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var linkErr *os.LinkError
	return errors.As(err, &linkErr)
}

func (s *Store) loadCatalog(ctx context.Context) (*catalog, error) {
	var cat *catalog
	err := retry.DoWithRetry(ctx, s.retryPolicy, isRetryableDiskErr, nil, func(ctx context.Context) error {
		data, err := os.ReadFile(filepath.Join(s.dir, catalogFileName))
		if err != nil {
			if os.IsNotExist(err) {
				cat = newCatalog()
				return nil
			}
			return err
		}
		cat = newCatalog()
		return json.Unmarshal(data, cat)
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// updateCatalog runs a read/modify/write cycle of the catalog file.
// The write is atomic (temp file + rename) and retried with backoff.
func (s *Store) updateCatalog(ctx context.Context, mutate func(*catalog) error) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}
	if err = mutate(cat); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return retry.DoWithRetry(ctx, s.retryPolicy, isRetryableDiskErr, s.notifyWriteRetry, func(ctx context.Context) error {
		tmpPath := filepath.Join(s.dir, catalogFileName+".tmp")
		if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
			return err
		}
		return os.Rename(tmpPath, filepath.Join(s.dir, catalogFileName))
	})
}

func (s *Store) notifyWriteRetry(err error, delay time.Duration) {
	s.logger.Warn("clip store: catalog write failed, will retry",
		log.Error(err), log.Duration("delay", delay))
}
