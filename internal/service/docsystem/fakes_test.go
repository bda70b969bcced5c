package docsystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	"nodestore/internal/domain/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory ObjectStore. Keys present in objects exist.
type fakeStore struct {
	mu sync.Mutex

	objects map[string]bool

	signErr   map[string]error // per-key SignedReadURL failure
	failOnce  map[string]error // like signErr, but consumed by the first attempt
	uploadErr error
	listErr   error
	deleteErr error

	signCalls   []string
	listCalls   []string
	deleteCalls []string
	uploadCalls []string
}

func newFakeStore(keys ...string) *fakeStore {
	s := &fakeStore{objects: map[string]bool{}, signErr: map[string]error{}, failOnce: map[string]error{}}
	for _, k := range keys {
		s.objects[k] = true
	}
	return s
}

func (s *fakeStore) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (*services.SignedUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadCalls = append(s.uploadCalls, key)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &services.SignedUpload{
		Key:       key,
		URL:       "https://store.test/upload/" + key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (s *fakeStore) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signCalls = append(s.signCalls, key)
	if err := s.signErr[key]; err != nil {
		return "", err
	}
	if err := s.failOnce[key]; err != nil {
		delete(s.failOnce, key)
		return "", err
	}
	if !s.objects[key] {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "https://store.test/read/" + key, nil
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]services.ObjectEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls = append(s.listCalls, prefix)
	if s.listErr != nil {
		return nil, s.listErr
	}
	var entries []services.ObjectEntry
	for key := range s.objects {
		if path.Dir(key) == prefix {
			entries = append(entries, services.ObjectEntry{Name: path.Base(key)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, key)
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

// fakeNodeRepo stores nodes in a map keyed by id
type fakeNodeRepo struct {
	mu      sync.Mutex
	nodes   map[string]*models.Node
	nextID  int
	getErr  error
	getErrs map[string]error

	createErr error
	deleteErr error
	listErr   error
	getCalls  []string
}

func newFakeNodeRepo(nodes ...*models.Node) *fakeNodeRepo {
	r := &fakeNodeRepo{nodes: map[string]*models.Node{}, getErrs: map[string]error{}}
	for _, n := range nodes {
		r.nodes[n.ID] = n
	}
	return r
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	node.ID = fmt.Sprintf("node-%d", r.nextID)
	node.CreatedAt = time.Now()
	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls = append(r.getCalls, id)
	if err := r.getErrs[id]; err != nil {
		return nil, err
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNodeRepo) FindFile(ctx context.Context, projectID string, parentID *string, name string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.ProjectID == projectID && n.Name == name && n.Type == models.NodeTypeFile && sameParent(n.ParentID, parentID) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("file %s: %w", name, domain.ErrNotFound)
}

func (r *fakeNodeRepo) FindOrCreateFile(ctx context.Context, node *models.Node) (*models.Node, bool, error) {
	existing, err := r.FindFile(ctx, node.ProjectID, node.ParentID, node.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	if err := r.Create(ctx, node); err != nil {
		return nil, false, err
	}
	return node, true, nil
}

func (r *fakeNodeRepo) ListByProject(ctx context.Context, projectID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Node
	for _, n := range r.nodes {
		if n.ProjectID == projectID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type == models.NodeTypeFolder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakeNodeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.nodes[id]
	return ok
}

func (r *fakeNodeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// fakeContentRepo keeps one row per node id
type fakeContentRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.FileContent
	upsertErr error
	upserts   int
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{rows: map[string]*models.FileContent{}}
}

func (r *fakeContentRepo) Get(ctx context.Context, nodeID string) (*models.FileContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[nodeID]
	if !ok {
		return nil, fmt.Errorf("content for %s: %w", nodeID, domain.ErrNotFound)
	}
	cp := *row
	return &cp, nil
}

func (r *fakeContentRepo) Upsert(ctx context.Context, content *models.FileContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	cp := *content
	r.rows[content.NodeID] = &cp
	return nil
}

// fakeProjectRepo serves projects from a map
type fakeProjectRepo struct {
	projects map[string]*models.Project
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *models.Project) error {
	r.projects[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	delete(r.projects, id)
	return nil
}

// fakeMembers holds "project/user" pairs
type fakeMembers struct {
	pairs map[string]bool
	err   error
	calls int
}

func newFakeMembers(pairs ...string) *fakeMembers {
	m := &fakeMembers{pairs: map[string]bool{}}
	for _, p := range pairs {
		m.pairs[p] = true
	}
	return m
}

func (m *fakeMembers) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.pairs[projectID+"/"+userID], nil
}

func (m *fakeMembers) Add(ctx context.Context, membership *models.Membership) error {
	m.pairs[membership.ProjectID+"/"+membership.UserID] = true
	return nil
}

func strPtr(s string) *string { return &s }

func hasPrefixAll(keys []string, prefix string) bool {
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
	}
	return true
}
