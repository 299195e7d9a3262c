// Package biztest provides in-memory implementations of the biz ports for
// tests.
package biztest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/yixianOu/moviestore/internal/biz"
)

// MovieRepo is an in-memory biz.MovieRepo. Setting Err makes every call fail
// with that error.
type MovieRepo struct {
	mu     sync.Mutex
	movies map[string]*biz.Movie
	now    func() time.Time

	Err   error
	Calls map[string]int
}

func NewMovieRepo(movies ...*biz.Movie) *MovieRepo {
	r := &MovieRepo{
		movies: make(map[string]*biz.Movie),
		now:    time.Now,
		Calls:  make(map[string]int),
	}
	for _, m := range movies {
		if _, err := r.CreateMovie(context.Background(), m); err != nil {
			panic(err)
		}
	}
	r.Calls = make(map[string]int)
	return r
}

// StoreDown makes the repo fail like an unreachable database.
func (r *MovieRepo) StoreDown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = fmt.Errorf("%w: connection refused", biz.ErrStoreUnavailable)
}

func (r *MovieRepo) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls[op]
}

func (r *MovieRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movies)
}

func (r *MovieRepo) enter(op string) error {
	r.Calls[op]++
	return r.Err
}

func (r *MovieRepo) CreateMovie(_ context.Context, movie *biz.Movie) (*biz.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("create"); err != nil {
		return nil, err
	}
	if _, ok := r.movies[movie.ID]; ok {
		return nil, biz.ErrMovieAlreadyExists
	}
	stored := clone(movie)
	now := r.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = &now, &now
	r.movies[movie.ID] = stored
	return clone(stored), nil
}

func (r *MovieRepo) GetMovieByID(_ context.Context, id string) (*biz.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("get"); err != nil {
		return nil, err
	}
	m, ok := r.movies[id]
	if !ok {
		return nil, biz.ErrMovieNotFound
	}
	return clone(m), nil
}

func (r *MovieRepo) GetMoviesByIDs(_ context.Context, ids []string) ([]*biz.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("get_many"); err != nil {
		return nil, err
	}
	out := make([]*biz.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.movies[id]; ok {
			out = append(out, clone(m))
		}
	}
	sortMovies(out)
	return out, nil
}

func (r *MovieRepo) UpdateMovie(_ context.Context, movie *biz.Movie) (*biz.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("update"); err != nil {
		return nil, err
	}
	existing, ok := r.movies[movie.ID]
	if !ok {
		return nil, biz.ErrMovieNotFound
	}
	stored := clone(movie)
	now := r.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = existing.CreatedAt, &now
	r.movies[movie.ID] = stored
	return clone(stored), nil
}

func (r *MovieRepo) DeleteMovie(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("delete"); err != nil {
		return err
	}
	if _, ok := r.movies[id]; !ok {
		return biz.ErrMovieNotFound
	}
	delete(r.movies, id)
	return nil
}

func (r *MovieRepo) SearchMovies(_ context.Context, f *biz.MovieFilter, limit, offset int) ([]*biz.Movie, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("search"); err != nil {
		return nil, 0, err
	}
	var matched []*biz.Movie
	for _, m := range r.movies {
		if matches(m, f) {
			matched = append(matched, clone(m))
		}
	}
	sortMovies(matched)

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*biz.Movie{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *MovieRepo) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Err
}

func matches(m *biz.Movie, f *biz.MovieFilter) bool {
	if f == nil {
		return true
	}
	if f.Title != nil && !containsFold(m.Title, *f.Title) {
		return false
	}
	if f.Year != nil && m.Year != *f.Year {
		return false
	}
	if len(f.Genre) > 0 && !overlaps(m.Genre, f.Genre) {
		return false
	}
	if f.Director != nil && (m.Director == nil || !containsFold(*m.Director, *f.Director)) {
		return false
	}
	if f.Rating != nil && (m.Rating == nil || *m.Rating != *f.Rating) {
		return false
	}
	if f.Cast != nil {
		found := false
		for _, c := range m.Cast {
			if containsFold(c.Name, *f.Cast) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func overlaps(have, want []biz.Genre) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func sortMovies(ms []*biz.Movie) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Year != ms[j].Year {
			return ms[i].Year > ms[j].Year
		}
		if ms[i].Title != ms[j].Title {
			return ms[i].Title < ms[j].Title
		}
		return ms[i].ID < ms[j].ID
	})
}

// clone deep-copies m and fills empty collections the way the postgres
// repository returns them.
func clone(m *biz.Movie) *biz.Movie {
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	var out biz.Movie
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	if out.Genre == nil {
		out.Genre = []biz.Genre{}
	}
	if out.Cast == nil {
		out.Cast = []biz.CastMember{}
	}
	if out.ProviderMetadata == nil {
		out.ProviderMetadata = map[string]interface{}{}
	}
	return &out
}

// Cache is an in-memory biz.MovieCache storing JSON like the redis cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	Down bool
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *Cache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return false, biz.ErrCacheUnavailable
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("%w: %v", biz.ErrCacheCorrupt, err)
	}
	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return biz.ErrCacheUnavailable
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.ttls[key] = ttl
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return false, biz.ErrCacheUnavailable
	}
	_, ok := c.entries[key]
	delete(c.entries, key)
	delete(c.ttls, key)
	return ok, nil
}

func (c *Cache) InvalidatePattern(_ context.Context, pattern string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return 0, biz.ErrCacheUnavailable
	}
	var n int64
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			delete(c.ttls, key)
			n++
		}
	}
	return n, nil
}

func (c *Cache) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return biz.ErrCacheUnavailable
	}
	return nil
}

// Put stores raw bytes under key, bypassing serialization.
func (c *Cache) Put(key string, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
}

func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *Cache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Queue is an in-memory biz.NotificationQueue. Each Receive pops one batch.
type Queue struct {
	mu       sync.Mutex
	batches  [][]*biz.Notification
	acked    []string
	receives int

	ReceiveErr error
	AckErr     error
	// OnEmpty runs when Receive finds no batch left.
	OnEmpty func()
}

func NewQueue(batches ...[]*biz.Notification) *Queue {
	return &Queue{batches: batches}
}

func (q *Queue) Push(batch ...*biz.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.batches = append(q.batches, batch)
}

func (q *Queue) Receive(ctx context.Context, max int32, _ time.Duration) ([]*biz.Notification, error) {
	q.mu.Lock()
	q.receives++
	if err := q.ReceiveErr; err != nil {
		q.mu.Unlock()
		return nil, err
	}
	if len(q.batches) == 0 {
		onEmpty := q.OnEmpty
		q.mu.Unlock()
		if onEmpty != nil {
			onEmpty()
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	batch := q.batches[0]
	q.batches = q.batches[1:]
	q.mu.Unlock()

	if int32(len(batch)) > max {
		batch = batch[:max]
	}
	return batch, nil
}

func (q *Queue) Ack(_ context.Context, n *biz.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.AckErr != nil {
		return q.AckErr
	}
	q.acked = append(q.acked, n.ID)
	return nil
}

func (q *Queue) Ping(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ReceiveErr
}

func (q *Queue) Acked() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := append([]string(nil), q.acked...)
	sort.Strings(out)
	return out
}

func (q *Queue) Receives() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.receives
}

// ErrNoSuchKey is returned by ObjectStore for missing objects.
var ErrNoSuchKey = errors.New("no such key")

// ObjectStore is an in-memory biz.ObjectStore keyed by "bucket/key".
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	Err error
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

func (s *ObjectStore) Put(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
}

func (s *ObjectStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	body, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrNoSuchKey)
	}
	return body, nil
}

func (s *ObjectStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

// Event builds a storage notification body referencing the given keys.
func Event(source, bucket string, keys ...string) []byte {
	type record struct {
		EventSource string `json:"eventSource"`
		S3          struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	}
	records := make([]record, len(keys))
	for i, k := range keys {
		records[i].EventSource = source
		records[i].S3.Bucket.Name = bucket
		records[i].S3.Object.Key = k
	}
	b, err := json.Marshal(map[string]interface{}{"Records": records})
	if err != nil {
		panic(err)
	}
	return b
}

// Wrapped wraps an event body the way a pub/sub topic delivers it.
func Wrapped(body []byte) []byte {
	b, err := json.Marshal(map[string]string{
		"Type":    "Notification",
		"Message": string(body),
	})
	if err != nil {
		panic(err)
	}
	return b
}
