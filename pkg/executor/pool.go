// Package executor implements the scheduler's outbound view of executor
// processes: a pool of opened gRPC clients, one per registered executor,
// used by RegisterExecutor and the dispatch loop's LaunchTask calls.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/distsql/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Pool is the executors client pool: a map from executor_id to an opened
// gRPC client, read-heavy (dispatch) and write-rare (registration),
// protected by a read/write lock. Security/authentication is an explicit
// Non-goal, so connections are plaintext.
type Pool struct {
	mu      sync.RWMutex
	clients map[string]*entry
}

type entry struct {
	conn   *grpc.ClientConn
	client proto.ExecutorGrpcClient
}

// NewPool returns an empty client pool.
func NewPool() *Pool {
	return &Pool{clients: make(map[string]*entry)}
}

// Register opens an outbound connection to host:grpcPort and inserts it
// into the pool under executorID, replacing any existing entry — on
// re-registration the prior connection is closed. Idempotent to call
// repeatedly for the same executor.
func (p *Pool) Register(ctx context.Context, executorID, host string, grpcPort int) error {
	addr := fmt.Sprintf("%s:%d", host, grpcPort)
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(proto.CodecName)),
	)
	if err != nil {
		return fmt.Errorf("connect to executor %s at %s: %w", executorID, addr, err)
	}

	p.mu.Lock()
	prior, existed := p.clients[executorID]
	p.clients[executorID] = &entry{conn: conn, client: proto.NewExecutorGrpcClient(conn)}
	p.mu.Unlock()

	if existed {
		prior.conn.Close()
	}
	return nil
}

// Get returns the client for executorID, or (nil, false) if never
// registered.
func (p *Pool) Get(executorID string) (proto.ExecutorGrpcClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.clients[executorID]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// LaunchTask looks up executorID's client and forwards the task batch.
func (p *Pool) LaunchTask(ctx context.Context, executorID string, tasks []*proto.TaskDefinition) error {
	client, ok := p.Get(executorID)
	if !ok {
		return fmt.Errorf("no client registered for executor %s", executorID)
	}
	_, err := client.LaunchTask(ctx, &proto.LaunchTaskParams{Tasks: tasks})
	if err != nil {
		return fmt.Errorf("launch task on executor %s: %w", executorID, err)
	}
	return nil
}

// Close tears down every open connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for id, e := range p.clients {
		if err := e.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close connection to %s: %w", id, err)
		}
	}
	return firstErr
}
