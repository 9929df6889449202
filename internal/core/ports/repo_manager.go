package ports

import "github.com/ArkLabsHQ/dunder/internal/core/domain"

type RepoManager interface {
	ChannelRequests() domain.ChannelRequestRepository
	HtlcSettlements() domain.HtlcSettlementRepository
	Close()
}
