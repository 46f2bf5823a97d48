// Package cloudsync ships committed changes of the record store to a cloud
// container directory as JSON batch files.
package cloudsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/onmir/booktracker/internal/database"
	syncrepo "github.com/onmir/booktracker/internal/database/sync"
	"github.com/onmir/booktracker/internal/entities"
)

const (
	DefaultContainerID = "iCloud.msg.onmir"
	DefaultSchedule    = "0 * * * *"
	DefaultBatchSize   = 200
)

type Config struct {
	Enabled     bool
	Dir         string
	ContainerID string
	Schedule    string
	// BatchSize is the number of history entries folded into one file.
	BatchSize int
}

// Batch is the content of one replication file.
type Batch struct {
	ID          string                `json:"id"`
	ContainerID string                `json:"container_id"`
	FromSeq     uint                  `json:"from_seq"`
	ToSeq       uint                  `json:"to_seq"`
	CreatedAt   time.Time             `json:"created_at"`
	Books       []entities.Book       `json:"books,omitempty"`
	ReadingLogs []entities.ReadingLog `json:"reading_logs,omitempty"`
	Quotes      []entities.Quote      `json:"quotes,omitempty"`
	Deleted     []entities.ChangeRef  `json:"deleted,omitempty"`
	// Kinds carries each shipped book's status and source as kind archives.
	Kinds []BookKinds `json:"kinds,omitempty"`
}

// BookKinds holds the archived status and source of one book. Status is
// empty for a book with no status.
type BookKinds struct {
	BookID uint   `json:"book_id"`
	Status []byte `json:"status,omitempty"`
	Source []byte `json:"source"`
}

func archiveKinds(books []entities.Book) ([]BookKinds, error) {
	kinds := make([]BookKinds, 0, len(books))
	for _, b := range books {
		k := BookKinds{BookID: b.ID}
		if b.Status != "" {
			status, err := b.Status.MarshalBinary()
			if err != nil {
				return nil, fmt.Errorf("archive status of book %d: %w", b.ID, err)
			}
			k.Status = status
		}
		source, err := b.Source.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("archive source of book %d: %w", b.ID, err)
		}
		k.Source = source
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Records is the number of upserted and deleted records in the batch.
func (b Batch) Records() int {
	return len(b.Books) + len(b.ReadingLogs) + len(b.Quotes) + len(b.Deleted)
}

type Result struct {
	Batches int  `json:"batches"`
	Records int  `json:"records"`
	LastSeq uint `json:"last_seq"`
}

// Replicator reads the change history after its cursor and writes each slice
// of it as one batch file holding the records as they are now stored.
type Replicator struct {
	manager   *database.ContextManager
	progress  *syncrepo.Repository
	dir       string
	container string
	batchSize int
}

func NewReplicator(manager *database.ContextManager, cfg Config) (*Replicator, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("cloud directory is required")
	}
	container := cfg.ContainerID
	if container == "" {
		container = DefaultContainerID
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	dir := filepath.Join(cfg.Dir, container)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create container directory: %w", err)
	}

	return &Replicator{
		manager:   manager,
		progress:  syncrepo.NewRepository(manager.DB(), container),
		dir:       dir,
		container: container,
		batchSize: batchSize,
	}, nil
}

// Dir is the directory batch files are written to.
func (r *Replicator) Dir() string {
	return r.dir
}

// RunOnce ships everything committed since the last run.
func (r *Replicator) RunOnce(ctx context.Context) (Result, error) {
	progress, err := r.progress.Start()
	if err != nil {
		return Result{}, err
	}

	result := Result{LastSeq: progress.LastSeq}
	for {
		if err := ctx.Err(); err != nil {
			return result, r.fail(err)
		}

		txns, err := r.manager.ChangesSince(result.LastSeq, r.batchSize)
		if err != nil {
			return result, r.fail(err)
		}
		if len(txns) == 0 {
			break
		}

		batch, err := r.buildBatch(ctx, txns)
		if err != nil {
			return result, r.fail(err)
		}
		if batch.Records() > 0 {
			if err := r.writeBatch(batch); err != nil {
				return result, r.fail(err)
			}
			result.Batches++
			result.Records += batch.Records()
		}
		if err := r.progress.Advance(batch.ToSeq, batch.ID, batch.Records()); err != nil {
			return result, r.fail(err)
		}
		result.LastSeq = batch.ToSeq
	}

	if err := r.progress.Complete(true, ""); err != nil {
		return result, err
	}
	if result.Batches > 0 {
		log.Printf("[SYNC] Shipped %d records in %d batches to %s (seq %d)",
			result.Records, result.Batches, r.container, result.LastSeq)
	}
	return result, nil
}

func (r *Replicator) fail(err error) error {
	if completeErr := r.progress.Complete(false, err.Error()); completeErr != nil {
		log.Printf("[SYNC] Failed to record replication failure: %v", completeErr)
	}
	return fmt.Errorf("replicate to %s: %w", r.container, err)
}

// buildBatch folds the transactions to the last operation per record and
// loads the surviving records. A record missing from the store was deleted
// by a later transaction and is shipped as a deletion.
func (r *Replicator) buildBatch(ctx context.Context, txns []entities.ChangeTransaction) (Batch, error) {
	batch := Batch{
		ID:          uuid.NewString(),
		ContainerID: r.container,
		FromSeq:     txns[0].Seq,
		ToSeq:       txns[len(txns)-1].Seq,
		CreatedAt:   time.Now().UTC(),
	}

	latest := make(map[entities.ChangeRef]entities.ChangeOp)
	for _, txn := range txns {
		for _, ref := range txn.Changes {
			latest[entities.ChangeRef{Entity: ref.Entity, ID: ref.ID}] = ref.Op
		}
	}

	live := map[string][]uint{}
	for ref, op := range latest {
		if op == entities.ChangeOpDelete {
			batch.Deleted = append(batch.Deleted, entities.ChangeRef{Entity: ref.Entity, ID: ref.ID, Op: op})
			continue
		}
		live[ref.Entity] = append(live[ref.Entity], ref.ID)
	}

	err := r.manager.PerformQuery(ctx, func(s *database.Session) error {
		if err := loadLive(s, live["books"], &batch.Books); err != nil {
			return err
		}
		if err := loadLive(s, live["reading_logs"], &batch.ReadingLogs); err != nil {
			return err
		}
		return loadLive(s, live["quotes"], &batch.Quotes)
	})
	if err != nil {
		return Batch{}, err
	}
	if len(batch.Books) > 0 {
		if batch.Kinds, err = archiveKinds(batch.Books); err != nil {
			return Batch{}, err
		}
	}

	batch.Deleted = append(batch.Deleted, vanished("books", live["books"], bookIDs(batch.Books))...)
	batch.Deleted = append(batch.Deleted, vanished("reading_logs", live["reading_logs"], logIDs(batch.ReadingLogs))...)
	batch.Deleted = append(batch.Deleted, vanished("quotes", live["quotes"], quoteIDs(batch.Quotes))...)
	sort.Slice(batch.Deleted, func(i, j int) bool {
		if batch.Deleted[i].Entity != batch.Deleted[j].Entity {
			return batch.Deleted[i].Entity < batch.Deleted[j].Entity
		}
		return batch.Deleted[i].ID < batch.Deleted[j].ID
	})
	return batch, nil
}

func loadLive[T any](s *database.Session, ids []uint, out *[]T) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB().Where("id IN ?", ids).Order("id").Find(out).Error
}

func vanished(entity string, wanted, found []uint) []entities.ChangeRef {
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var refs []entities.ChangeRef
	for _, id := range wanted {
		if !present[id] {
			refs = append(refs, entities.ChangeRef{Entity: entity, ID: id, Op: entities.ChangeOpDelete})
		}
	}
	return refs
}

func bookIDs(books []entities.Book) []uint {
	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}

func logIDs(logs []entities.ReadingLog) []uint {
	ids := make([]uint, len(logs))
	for i, l := range logs {
		ids[i] = l.ID
	}
	return ids
}

func quoteIDs(quotes []entities.Quote) []uint {
	ids := make([]uint, len(quotes))
	for i, q := range quotes {
		ids[i] = q.ID
	}
	return ids
}

func (r *Replicator) writeBatch(batch Batch) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".batch_")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(r.dir, batch.ID+".json"))
}
