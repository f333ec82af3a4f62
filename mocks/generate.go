package mocks

//go:generate mockgen -destination=./mock_snapshot_provider.go -package=mocks github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider SnapshotProvider
