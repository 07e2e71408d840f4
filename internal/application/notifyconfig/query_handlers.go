package notifyconfig

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

type QueryHandlers struct {
	readModel *infrastructure.NotifyConfigProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.NotifyConfigProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetSMTPConfigQuery{}.QueryType(), h.handleGetSMTP)
	bus.Register(GetSMSConfigQuery{}.QueryType(), h.handleGetSMS)
}

func (h *QueryHandlers) handleGetSMTP(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetSMTPConfigQuery)
	rm, err := h.readModel.GetSMTPByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	if rm == nil {
		err := domain.NewNotFound("SMTP-Q-001", "smtp config not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: SMTPConfigView{ID: rm.ID, Host: rm.Host, Port: rm.Port, User: rm.User, Password: rm.Password, State: rm.State}}, nil
}

func (h *QueryHandlers) handleGetSMS(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetSMSConfigQuery)
	rm, err := h.readModel.GetSMSByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	if rm == nil {
		err := domain.NewNotFound("SMS-Q-001", "sms config not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: SMSConfigView{ID: rm.ID, Provider: rm.Provider, Settings: rm.Settings, State: rm.State}}, nil
}
