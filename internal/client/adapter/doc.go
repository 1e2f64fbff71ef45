// Package adapter runs the AllergoZyme auth and review operations against
// the hosted service (client.Service) instead of the local store.
//
// Remote keeps the signed-in profile and the latest review listing in
// memory and mirrors the listing into the local store so that reads work
// while the service is unreachable. ReconcilingStore turns whole-array
// writes of the reviews document into update/delete ops; Outbox persists
// those ops and replays them with bounded retry.
package adapter
