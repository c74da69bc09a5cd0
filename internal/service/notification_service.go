package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/freight-sync/internal/config"
	"github.com/nurpe/freight-sync/internal/model"
	"github.com/nurpe/freight-sync/internal/notify"
	"github.com/nurpe/freight-sync/internal/repository"
)

// WebhookSender delivers one message to an outbound sink.
type WebhookSender interface {
	Send(ctx context.Context, message notify.Message) error
}

var (
	colorPassed = 0x008000
	colorFailed = 0xFF0000
)

// NotificationService decides, per contract and audience, whether a message
// fires, and records each send exactly once. Delivery failures are logged and
// never block other contracts; the recurring cadence retries them.
type NotificationService struct {
	contracts *repository.ContractRepository
	pilots    WebhookSender // nil when no pilot webhook is configured
	customers WebhookSender // nil when no customer webhook is configured
	cfg       *config.Config
	log       zerolog.Logger
	now       func() time.Time
}

func NewNotificationService(
	contracts *repository.ContractRepository,
	pilots WebhookSender,
	customers WebhookSender,
	cfg *config.Config,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		contracts: contracts,
		pilots:    pilots,
		customers: customers,
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SendPending fires all due pilot and customer messages.
func (s *NotificationService) SendPending(ctx context.Context) error {
	if s.pilots != nil {
		if err := s.sendPilotNotifications(ctx); err != nil {
			return err
		}
	} else {
		s.log.Debug().Msg("pilot webhook not configured")
	}

	if s.customers != nil {
		if err := s.sendCustomerNotifications(ctx); err != nil {
			return err
		}
	} else {
		s.log.Debug().Msg("customer webhook not configured")
	}
	return nil
}

// sendPilotNotifications handles the "new contract" message: once per
// contract, first seen outstanding, priced, not expired, and issued within
// the staleness window so a first-time setup does not flood the channel.
func (s *NotificationService) sendPilotNotifications(ctx context.Context) error {
	contracts, err := s.contracts.ListPilotNotifiable(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	window := s.cfg.StalenessWindow()
	for _, contract := range contracts {
		if contract.HasExpired(now) {
			s.log.Debug().Int64("contract_id", contract.ContractID).Msg("contract has expired")
			continue
		}
		if now.Sub(contract.DateIssued) > window {
			s.log.Debug().Int64("contract_id", contract.ContractID).Msg("contract issued outside staleness window")
			continue
		}

		if err := s.pilots.Send(ctx, s.pilotMessage(contract)); err != nil {
			s.log.Error().Err(err).
				Int64("contract_id", contract.ContractID).
				Msg("failed to deliver pilot notification")
			continue
		}
		if err := s.contracts.MarkPilotNotified(ctx, contract.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// sendCustomerNotifications handles the issuer-facing status messages, one
// per reached status, suppressed for expired contracts and once the status
// has gone stale.
func (s *NotificationService) sendCustomerNotifications(ctx context.Context) error {
	contracts, err := s.contracts.ListCustomerNotifiable(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	window := s.cfg.StalenessWindow()
	for _, contract := range contracts {
		if contract.HasExpired(now) {
			continue
		}
		if contract.HasStaleStatus(window, now) {
			s.log.Debug().Int64("contract_id", contract.ContractID).Msg("contract has stale status")
			continue
		}
		if contract.CustomerNotifiedAt(contract.Status) != nil {
			continue
		}

		if err := s.customers.Send(ctx, s.customerMessage(contract)); err != nil {
			s.log.Error().Err(err).
				Int64("contract_id", contract.ContractID).
				Msg("failed to deliver customer notification")
			continue
		}
		if err := s.contracts.MarkCustomerNotified(ctx, contract.ID, contract.Status, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) pilotMessage(contract model.Contract) notify.Message {
	issuer := entityName(contract.Issuer)
	description, color := s.contractSummary(contract)

	issued := contract.DateIssued
	return notify.Message{
		Content: fmt.Sprintf("There is a new courier contract from %s looking to be picked up:", issuer),
		Embeds: []notify.Embed{{
			Description: description,
			Color:       color,
			Timestamp:   &issued,
		}},
	}
}

func (s *NotificationService) customerMessage(contract model.Contract) notify.Message {
	var content string
	switch contract.Status {
	case model.StatusOutstanding:
		content = fmt.Sprintf("Your courier contract %d has been posted and is awaiting a pilot.", contract.ContractID)
	case model.StatusInProgress:
		content = fmt.Sprintf("Your courier contract %d has been accepted by %s.", contract.ContractID, contract.AcceptorName())
	case model.StatusFinished:
		content = fmt.Sprintf("Your courier contract %d has been delivered.", contract.ContractID)
	case model.StatusFailed:
		content = fmt.Sprintf("Your courier contract %d has failed.", contract.ContractID)
	}

	description, color := s.contractSummary(contract)
	statusDate := contract.StatusDate()
	return notify.Message{
		Content: content,
		Embeds: []notify.Embed{{
			Description: description,
			Color:       color,
			Timestamp:   &statusDate,
		}},
	}
}

func (s *NotificationService) contractSummary(contract model.Contract) (string, *int) {
	var color *int
	checkText := "N/A"
	if contract.HasPricing() {
		if contract.IsCompliant() {
			checkText = "passed"
			color = &colorPassed
		} else {
			checkText = "FAILED"
			color = &colorFailed
		}
	}

	description := fmt.Sprintf("**Route**: %s\n", s.routeName(contract)) +
		fmt.Sprintf("**Reward**: %.0f M ISK\n", contract.Reward/1000000) +
		fmt.Sprintf("**Collateral**: %.0f M ISK\n", contract.Collateral/1000000) +
		fmt.Sprintf("**Volume**: %.0f K m3\n", contract.Volume/1000) +
		fmt.Sprintf("**Price Check**: %s\n", checkText) +
		fmt.Sprintf("**Expires on**: %s\n", contract.DateExpired.Format("2006-01-02 15:04")) +
		fmt.Sprintf("**Issued by**: %s\n", entityName(contract.Issuer))
	return description, color
}

func (s *NotificationService) routeName(contract model.Contract) string {
	if contract.StartLocation == nil || contract.EndLocation == nil {
		return fmt.Sprintf("%d -> %d", contract.StartLocationID, contract.EndLocationID)
	}
	if s.cfg.Freight.FullRouteNames {
		return fmt.Sprintf("%s -> %s", contract.StartLocation.Name, contract.EndLocation.Name)
	}
	return fmt.Sprintf("%s -> %s",
		contract.StartLocation.SolarSystemName(), contract.EndLocation.SolarSystemName())
}

func entityName(entity *model.EveEntity) string {
	if entity == nil {
		return "(unknown)"
	}
	return entity.Name
}
