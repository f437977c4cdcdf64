package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gallerysync/internal/common"
	"github.com/dmitrijs2005/gallerysync/internal/dbx"
	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/config"
	"github.com/dmitrijs2005/gallerysync/internal/server/executor"
	"github.com/dmitrijs2005/gallerysync/internal/server/models"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/galleries"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/photos"
)

// --- helpers ---

// eventLog is shared by the fake store and fake repositories so tests can
// check the relative order of remote and database calls.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) withPrefix(prefix string) []string {
	var out []string
	for _, e := range l.all() {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// indexOf returns the position of the first event starting with prefix, or -1.
func (l *eventLog) indexOf(prefix string) int {
	for i, e := range l.all() {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

type memStore struct {
	log     *eventLog
	failing map[string]error

	mu      sync.Mutex
	objects map[string][]byte

	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func newMemStore(log *eventLog) *memStore {
	return &memStore{log: log, failing: map[string]error{}, objects: map[string][]byte{}}
}

func (m *memStore) enter() func() {
	n := m.inFlight.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return func() { m.inFlight.Add(-1) }
}

func (m *memStore) Put(ctx context.Context, key string, body []byte, _ string, _ bool) error {
	defer m.enter()()
	m.log.add("store:put:%s", key)
	if err := m.failing[key]; err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = body
	m.mu.Unlock()
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	defer m.enter()()
	m.log.add("store:delete:%s", key)
	if err := m.failing["delete:"+key]; err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *memStore) DeletePrefix(ctx context.Context, prefix string) error {
	defer m.enter()()
	m.log.add("store:deletePrefix:%s", prefix)
	if err := m.failing["prefix:"+prefix]; err != nil {
		return err
	}
	m.mu.Lock()
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memStore) storeCalls() []string { return m.log.withPrefix("store:") }

type fakeGalleriesRepo struct {
	log       *eventLog
	rows      map[int64]*models.Gallery
	deleteErr error
}

func (f *fakeGalleriesRepo) GetByID(ctx context.Context, id int64) (*models.Gallery, error) {
	g, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGalleriesRepo) Delete(ctx context.Context, id int64) error {
	f.log.add("db:deleteGallery:%d", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}

type fakePhotosRepo struct {
	log *eventLog

	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Photo

	createCalls int
	failCreate  int // 1-based call that fails, 0 never
	updateErr   error
	deleteErr   error
}

func newFakePhotosRepo(log *eventLog) *fakePhotosRepo {
	return &fakePhotosRepo{log: log, nextID: 100, rows: map[int64]*models.Photo{}}
}

func (f *fakePhotosRepo) CreateBare(ctx context.Context, galleryID, userID int64) (*models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate == f.createCalls {
		return nil, fmt.Errorf("insert failed")
	}
	f.nextID++
	p := &models.Photo{ID: f.nextID, GalleryID: galleryID, UserID: userID}
	cp := *p
	f.rows[p.ID] = &cp
	f.log.add("db:insert:%d", p.ID)
	return p, nil
}

func (f *fakePhotosRepo) UpdateLocation(ctx context.Context, photo *models.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *photo
	f.rows[photo.ID] = &cp
	return nil
}

func (f *fakePhotosRepo) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePhotosRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("db:deletePhoto:%d", id)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakePhotosRepo) DeleteByGallery(ctx context.Context, galleryID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("db:deletePhotosByGallery:%d", galleryID)
	var n int64
	for id, p := range f.rows {
		if p.GalleryID == galleryID {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakePhotosRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakePhotosRepo) put(p *models.Photo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p.ID] = p
}

type fakeRepoManager struct {
	g *fakeGalleriesRepo
	p *fakePhotosRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Galleries(db dbx.DBTX) galleries.Repository   { return m.g }
func (m *fakeRepoManager) Photos(db dbx.DBTX) photos.Repository         { return m.p }

type fakeRenderer struct{}

func (fakeRenderer) Render(data []byte) ([]byte, string, error) {
	if string(data) == "corrupt" {
		return nil, "", fmt.Errorf("unsupported image")
	}
	return append([]byte("thumb:"), data...), "image/jpeg", nil
}

type fixture struct {
	log   *eventLog
	store *memStore
	rm    *fakeRepoManager
	db    *sql.DB
	mock  sqlmock.Sqlmock
	cfg   *config.Config
	exec  *executor.Executor
}

const (
	ownerID    int64 = 7
	strangerID int64 = 8
	galleryID  int64 = 4
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := &eventLog{}
	store := newMemStore(log)
	cfg := &config.Config{
		S3Bucket:          "tccsimagegallery",
		S3Region:          "us-east-2",
		UploadConcurrency: 5,
		DeleteConcurrency: 2,
	}
	return &fixture{
		log:   log,
		store: store,
		rm: &fakeRepoManager{
			g: &fakeGalleriesRepo{log: log, rows: map[int64]*models.Gallery{
				galleryID: {ID: galleryID, Title: "Holidays", UserID: ownerID},
			}},
			p: newFakePhotosRepo(log),
		},
		db:   db,
		mock: mock,
		cfg:  cfg,
		exec: executor.New(store, time.Second, logging.Discard()),
	}
}

func (f *fixture) uploadService() *UploadService {
	s := NewUploadService(f.db, f.rm, f.exec, fakeRenderer{}, f.cfg, logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC) }
	return s
}

func (f *fixture) deletionService() *DeletionService {
	return NewDeletionService(f.db, f.rm, f.exec, f.cfg, logging.Discard())
}
