package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drusskikh/blobmanager/internal/cfg"
	"github.com/drusskikh/blobmanager/internal/factories"
	"github.com/drusskikh/blobmanager/pkg/backend"
	"github.com/drusskikh/blobmanager/pkg/manager"
)

const importConcurrency = 8

func main() {
	flag.Usage = usage
	flag.Parse()

	config, err := cfg.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), config, logger, flag.Args()); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: blobctl <command> [args]

commands:
  put <block-id> [file]      store one block (stdin when file is omitted)
  get <block-id>             print one block to stdout
  import <base-id> <file>    split a file into blocks starting at base-id

backend and geometry come from the environment: REDIS_URL, REDIS_CLUSTER_URL
or LOCAL_BLOB_DIR, plus BLOCK_SIZE and BLOCKS_PER_BLOB.
`)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func run(ctx context.Context, config cfg.Config, logger *zap.Logger, args []string) error {
	if len(args) < 1 {
		usage()

		return fmt.Errorf("missing command")
	}

	store, cleanup, err := newStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []manager.Option{manager.WithKeyPrefix(config.KeyPrefix)}
	if config.ReadCacheDir != "" {
		opts = append(opts, manager.WithReadCache(config.ReadCacheDir))
	}

	mgr := manager.NewKV(store, opts...)
	defer mgr.Close()

	err = mgr.Init(config.BlockSize, config.BlocksPerBlob)
	if err != nil {
		return fmt.Errorf("failed to initialize blob manager: %w", err)
	}

	logger.Debug("blob manager ready",
		zap.Uint64("block_size", config.BlockSize),
		zap.Uint32("blocks_per_blob", config.BlocksPerBlob),
	)

	switch args[0] {
	case "put":
		return putBlock(ctx, mgr, config, args[1:])
	case "get":
		return getBlock(ctx, mgr, args[1:])
	case "import":
		return importFile(ctx, mgr, config, logger, args[1:])
	default:
		usage()

		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newStore(ctx context.Context, config cfg.Config, logger *zap.Logger) (backend.Store, func(), error) {
	redisClient, err := factories.NewRedisClient(ctx, config)
	if err == nil {
		logger.Debug("using redis backend")

		return backend.NewRedis(redisClient), func() {
			if closeErr := factories.CloseCleanly(redisClient); closeErr != nil {
				logger.Warn("error closing redis client", zap.Error(closeErr))
			}
		}, nil
	}

	if !errors.Is(err, factories.ErrRedisDisabled) {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if config.LocalBlobDir == "" {
		return nil, nil, fmt.Errorf("no backend configured: set REDIS_URL, REDIS_CLUSTER_URL or LOCAL_BLOB_DIR")
	}

	blobSize := int64(config.BlockSize) * int64(config.BlocksPerBlob)

	local, err := backend.NewLocal(config.LocalBlobDir, blobSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local backend: %w", err)
	}

	logger.Debug("using local backend", zap.String("dir", config.LocalBlobDir))

	return local, func() {
		if closeErr := local.Close(); closeErr != nil {
			logger.Warn("error closing local backend", zap.Error(closeErr))
		}
	}, nil
}

func putBlock(ctx context.Context, mgr manager.Manager, config cfg.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("put: missing block id")
	}

	blockID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("put: invalid block id %q: %w", args[0], err)
	}

	var in io.Reader = os.Stdin
	if len(args) > 1 {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("put: %w", err)
		}
		defer f.Close()

		in = f
	}

	data := make([]byte, config.BlockSize)

	_, err = io.ReadFull(in, data)
	if err != nil {
		return fmt.Errorf("put: expected %d bytes of input: %w", config.BlockSize, err)
	}

	return mgr.PutBlock(ctx, blockID, data)
}

func getBlock(ctx context.Context, mgr manager.Manager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("get: missing block id")
	}

	blockID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("get: invalid block id %q: %w", args[0], err)
	}

	data, err := mgr.GetBlock(ctx, blockID)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)

	return err
}

// importFile splits a file into block-size payloads and stores them under
// consecutive block ids starting at base-id. The last payload is padded
// with zero bytes.
func importFile(ctx context.Context, mgr manager.Manager, config cfg.Config, logger *zap.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("import: missing base id or file")
	}

	baseID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("import: invalid base id %q: %w", args[0], err)
	}

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	e, ctx := errgroup.WithContext(ctx)
	e.SetLimit(importConcurrency)

	blocks := uint64(0)
	for blockID := baseID; ; blockID++ {
		data := make([]byte, config.BlockSize)

		n, err := io.ReadFull(f, data)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("import: failed to read file: %w", err)
		}

		e.Go(func() error {
			return mgr.PutBlock(ctx, blockID, data)
		})

		blocks++

		if n < len(data) {
			break
		}
	}

	if err := e.Wait(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	logger.Info("import finished",
		zap.Uint64("base_id", baseID),
		zap.Uint64("blocks", blocks),
	)

	return nil
}
