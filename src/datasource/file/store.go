package file

import (
	"context"
	"strings"
	"sync"

	"TurnaroundAnalysis/src/dataset"
)

// Fetcher 按引用取回工作簿内容, 例如邮件附件
type Fetcher func(ctx context.Context, ref string) ([]byte, error)

// Store 每个数据源引用只加载一次, 之后复用同一个 Dataset
//
// 数据源在运行期间不变, 因此没有失效机制; 加载失败同样会被记住.
type Store struct {
	opts     Options
	mu       sync.Mutex
	entries  map[string]*entry
	fetchers map[string]Fetcher
}

type entry struct {
	once   sync.Once
	ds     *dataset.Dataset
	err    error
	loaded bool
}

func NewStore(opts Options) *Store {
	return &Store{
		opts:     opts,
		entries:  make(map[string]*entry),
		fetchers: make(map[string]Fetcher),
	}
}

// Register 为 "<scheme>:..." 形式的引用注册取数方式
func (s *Store) Register(scheme string, fn Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchers[scheme] = fn
}

// Load 返回引用对应的 Dataset, 首次调用时加载
func (s *Store) Load(ctx context.Context, ref string) (*dataset.Dataset, error) {
	s.mu.Lock()
	e, ok := s.entries[ref]
	if !ok {
		e = &entry{}
		s.entries[ref] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		e.ds, e.err = s.load(ctx, ref)
		s.mu.Lock()
		e.loaded = e.err == nil
		s.mu.Unlock()
	})
	return e.ds, e.err
}

// Loaded 引用是否已经加载成功
func (s *Store) Loaded(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ref]
	return ok && e.loaded
}

func (s *Store) load(ctx context.Context, ref string) (*dataset.Dataset, error) {
	if ref == "" {
		return nil, unavailable(ref, "未配置数据源", nil)
	}

	if scheme, rest, found := strings.Cut(ref, ":"); found && len(scheme) > 1 {
		s.mu.Lock()
		fetch, ok := s.fetchers[scheme]
		s.mu.Unlock()
		if ok {
			content, err := fetch(ctx, rest)
			if err != nil {
				return nil, unavailable(ref, "取回工作簿失败", err)
			}
			return ReadXLSXBinary(ref, content, s.opts)
		}
	}

	return ReadXLSX(ref, s.opts)
}
