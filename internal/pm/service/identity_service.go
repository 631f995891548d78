package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keramy/formula-backend/internal/pm/entity"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"github.com/redis/go-redis/v9"
)

const actorCacheTTL = 5 * time.Minute

// IdentityService 身份/角色提供方：按用户ID解析出显式的Actor
// 角色来自users表，经redis短期缓存；流程服务只信任传入的Actor，不自行查身份
type IdentityService struct {
	userRepo *repository.UserRepository
	rdb      *redis.Client
}

// NewIdentityService 创建身份服务
func NewIdentityService(userRepo *repository.UserRepository, rdb *redis.Client) *IdentityService {
	return &IdentityService{userRepo: userRepo, rdb: rdb}
}

// ResolveActor 解析用户为Actor，用户不存在或角色不合法时报错
func (s *IdentityService) ResolveActor(ctx context.Context, userID string) (Actor, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, actorCacheKey(userID)).Result(); err == nil {
			var actor Actor
			if json.Unmarshal([]byte(cached), &actor) == nil && actor.ID != "" {
				return actor, nil
			}
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return Actor{}, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return Actor{}, newWorkflowError(KindNotFound, "用户不存在: %s", userID)
	}
	if !entity.ValidRole(user.Role) {
		return Actor{}, newWorkflowError(KindAuthorization, "用户 %s 角色不合法: %q", userID, user.Role)
	}

	actor := Actor{ID: user.ID, Name: user.Name, Role: user.Role}

	if s.rdb != nil {
		if data, err := json.Marshal(actor); err == nil {
			s.rdb.Set(ctx, actorCacheKey(userID), data, actorCacheTTL)
		}
	}

	return actor, nil
}

// InvalidateActor 用户角色变更后清缓存
func (s *IdentityService) InvalidateActor(ctx context.Context, userID string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, actorCacheKey(userID))
	}
}

func actorCacheKey(userID string) string {
	return "formula:actor:" + userID
}
