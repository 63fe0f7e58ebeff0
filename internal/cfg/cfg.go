package cfg

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Exactly one backend should be configured; Redis wins when both a
	// Redis URL and a local directory are set.
	RedisURL        string `env:"REDIS_URL"`
	RedisClusterURL string `env:"REDIS_CLUSTER_URL"`
	LocalBlobDir    string `env:"LOCAL_BLOB_DIR"`

	BlockSize     uint64 `env:"BLOCK_SIZE"      envDefault:"4096"`
	BlocksPerBlob uint32 `env:"BLOCKS_PER_BLOB" envDefault:"128"`

	KeyPrefix    string `env:"BLOB_KEY_PREFIX" envDefault:"blob:"`
	ReadCacheDir string `env:"READ_CACHE_DIR"`

	Debug bool `env:"DEBUG"`
}

func Parse() (Config, error) {
	return env.ParseAs[Config]()
}
