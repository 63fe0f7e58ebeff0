package manager

// Option configures a KV manager.
type Option func(*KV)

// WithKeyPrefix overrides the prefix prepended to blob ids when deriving
// backing store keys. The default is "blob:".
func WithKeyPrefix(prefix string) Option {
	return func(m *KV) {
		m.prefix = prefix
	}
}

// WithReadCache enables a local memory-mapped read cache under dir. The
// cache is updated on every successful PutBlock, so a manager always reads
// its own writes. Writes made through other managers sharing the backing
// store are not visible through cached blocks.
func WithReadCache(dir string) Option {
	return func(m *KV) {
		m.cacheDir = dir
	}
}
