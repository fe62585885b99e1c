package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davcore/config"
	"github.com/xxxsen/davcore/dao"
	daocache "github.com/xxxsen/davcore/dao/cache"
	"github.com/xxxsen/davcore/db"
	"github.com/xxxsen/davcore/server"
	"github.com/xxxsen/davcore/tree"
	"github.com/xxxsen/davcore/tree/fstree"
	"github.com/xxxsen/davcore/tree/memtree"
	"go.uber.org/zap"
)

const defaultLockSweepInterval = 1 * time.Minute

func newServeCmd() *cobra.Command {
	var configFile string
	c := &cobra.Command{
		Use:   "serve",
		Short: "start the dav server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}
	c.Flags().StringVarP(&configFile, "config", "c", "./config.json", "config file")
	return c
}

func runServe(configFile string) error {
	c, err := config.Parse(configFile)
	if err != nil {
		return fmt.Errorf("parse config failed, err:%w", err)
	}
	logitem := c.LogInfo
	logger := logger.Init(logitem.File, logitem.Level, int(logitem.FileCount), int(logitem.FileSize), int(logitem.KeepDays), logitem.Console)
	logger.Info("recv config", zap.Any("config", c))
	t, err := buildTree(c)
	if err != nil {
		logger.Fatal("init tree fail", zap.Error(err))
	}
	logger.Info("current storage",
		zap.String("kind", c.Storage.Kind),
		zap.String("root", c.Storage.Root),
		zap.String("read_cache", humanize.IBytes(uint64(c.Storage.CacheSize))))
	logger.Info("-- patch feature", zap.Bool("enable", c.Patch.Enable))
	svr, err := server.New(c.Bind,
		server.WithPrefix(c.Prefix),
		server.WithTree(t),
		server.WithUser(c.UserInfo),
		server.WithEnablePatch(c.Patch.Enable),
	)
	if err != nil {
		logger.Fatal("init server fail", zap.Error(err))
	}
	logger.Info("init server succ, start it...")
	if err := svr.Run(); err != nil {
		logger.Fatal("run server fail", zap.Error(err))
	}
	return nil
}

func buildTree(c *config.Config) (tree.ITree, error) {
	switch c.Storage.Kind {
	case "", "memory":
		return memtree.New(), nil
	case "fs":
		opts := []fstree.Option{}
		if c.Storage.CacheSize > 0 {
			opts = append(opts, fstree.WithCacheSize(c.Storage.CacheSize))
		}
		t, err := fstree.New(c.Storage.Root, opts...)
		if err != nil {
			return nil, fmt.Errorf("init fs tree failed, err:%w", err)
		}
		if c.DBFile == "" {
			// no lock table, serve class 1 only
			return t, nil
		}
		if err := db.InitDB(c.DBFile); err != nil {
			return nil, fmt.Errorf("init lock db failed, err:%w", err)
		}
		lockDao := daocache.NewLockDao(dao.NewLockDao(db.GetClient()))
		lt := fstree.WithLocks(t, lockDao)
		go sweepExpiredLocks(lt)
		return lt, nil
	default:
		return nil, fmt.Errorf("unknown storage kind:%s", c.Storage.Kind)
	}
}

func sweepExpiredLocks(t *fstree.LockedFSTree) {
	ctx := context.Background()
	ticker := time.NewTicker(defaultLockSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := t.SweepExpired(ctx); err != nil {
			logutil.GetLogger(ctx).Error("sweep expired locks failed", zap.Error(err))
		}
	}
}
