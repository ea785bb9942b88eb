package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogQuery struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditLogUsecase) List(ctx context.Context, q AuditLogQuery) (AuditLogListOutput, error) {
	if err := validatePaging(q.Page, q.Limit, ""); err != nil {
		return AuditLogListOutput{}, err
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	f := repo.AuditLogFilter{
		ActorUserID: q.ActorUserID,
		ResourceID:  q.ResourceID,
		CreatedFrom: q.From,
		CreatedTo:   q.To,
		Limit:       q.Limit,
		Offset:      (q.Page - 1) * q.Limit,
	}
	if a := strings.ToUpper(strings.TrimSpace(q.Action)); a != "" {
		action := model.AuditAction(a)
		f.Action = &action
	}
	if rt := strings.ToLower(strings.TrimSpace(q.ResourceType)); rt != "" {
		resource := model.AuditResourceType(rt)
		f.ResourceType = &resource
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, errDB()
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Page: q.Page, Limit: q.Limit}, nil
}

// 監査ログ用のJSON文字列
func auditJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Tx内で監査ログを書く
func writeAudit(ctx context.Context, r repo.TxRepos, actor int64, action model.AuditAction, resource model.AuditResourceType, id int64, before, after interface{}) error {
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: resource,
		ResourceID:   id,
		BeforeJSON:   auditJSON(before),
		AfterJSON:    auditJSON(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		return errDB()
	}
	return nil
}
