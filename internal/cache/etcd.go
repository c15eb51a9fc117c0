package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/hewenyu/stack-discovery/internal/config"
)

// cacheKey 缓存条目在etcd中的存储键
const cacheKey = "/stack-discovery/cache/discovery"

// staleRetentionFactor 过期条目的保留倍数，用于降级响应
const staleRetentionFactor = 10

// EtcdStore 是基于etcd的Store实现，可选的外部缓存后端
// 条目以JSON存储并绑定与TTL一致的租约，多副本部署时可共享发现结果
type EtcdStore struct {
	client *clientv3.Client
	logger config.Logger
}

// EtcdConfig etcd缓存后端连接配置
type EtcdConfig struct {
	Endpoints   []string
	Username    string
	Password    string
	DialTimeout time.Duration
}

// NewEtcdStore 创建etcd缓存后端并测试连接
func NewEtcdStore(cfg EtcdConfig, logger config.Logger) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("连接etcd失败: %w", err)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := client.Status(ctx, cfg.Endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("etcd连接测试失败: %w", err)
	}

	return &EtcdStore{
		client: client,
		logger: logger,
	}, nil
}

// Close 关闭etcd客户端连接
func (s *EtcdStore) Close() error {
	return s.client.Close()
}

// Get 读取缓存条目；数据损坏时按缓存未命中处理，由下一次发现覆盖
func (s *EtcdStore) Get(ctx context.Context) (*Entry, error) {
	resp, err := s.client.Get(ctx, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("读取etcd缓存失败: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal(resp.Kvs[0].Value, &entry); err != nil {
		s.logger.Warn("etcd缓存条目损坏，按缓存未命中处理", zap.Error(err))
		return nil, nil
	}
	return &entry, nil
}

// Put 写入缓存条目并绑定TTL租约，etcd在过期后自动删除
func (s *EtcdStore) Put(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化缓存条目失败: %w", err)
	}

	// 租约只做兜底清理，时长放大到TTL的十倍：
	// 过期但未被替换的条目还要用于发现失败时的降级响应，新鲜度由IsFresh判断
	if entry.TTLSeconds > 0 {
		lease, err := s.client.Grant(ctx, int64(entry.TTLSeconds)*staleRetentionFactor)
		if err != nil {
			return fmt.Errorf("创建etcd租约失败: %w", err)
		}
		if _, err := s.client.Put(ctx, cacheKey, string(data), clientv3.WithLease(lease.ID)); err != nil {
			return fmt.Errorf("写入etcd缓存失败: %w", err)
		}
		return nil
	}

	if _, err := s.client.Put(ctx, cacheKey, string(data)); err != nil {
		return fmt.Errorf("写入etcd缓存失败: %w", err)
	}
	return nil
}

// Invalidate 删除缓存条目
func (s *EtcdStore) Invalidate(ctx context.Context) error {
	if _, err := s.client.Delete(ctx, cacheKey); err != nil {
		return fmt.Errorf("删除etcd缓存失败: %w", err)
	}
	return nil
}
