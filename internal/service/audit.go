package service

import (
	"context"
	"encoding/json"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type auditTrail struct {
	repo   repository.AuditLogRepository
	logger logrus.FieldLogger
}

// record appends an audit row. Failures are logged and never reach the
// caller of the audited operation.
func (a auditTrail) record(
	ctx context.Context,
	userID *uuid.UUID,
	action entity.AuditAction,
	details map[string]any,
) {
	if a.repo == nil {
		return
	}
	var payload datatypes.JSON
	if details != nil {
		bytes, err := json.Marshal(details)
		if err != nil {
			a.logger.WithError(err).WithField("action", action).Warn("audit details not encodable")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	client := clientInfoFrom(ctx)
	log := &entity.AuditLog{
		SystemUserID: userID,
		Action:       action,
		EntityType:   entity.EntitySystemUser,
		EntityID:     userID,
		Details:      payload,
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
	}
	if err := a.repo.Log(ctx, log); err != nil {
		a.logger.WithError(err).WithField("action", action).Warn("audit log write failed")
	}
}
