// Package client is a thin CLI-facing wrapper around proto.SchedulerGrpcClient,
// the outbound view a SQL client driver or the distsql CLI has of the
// scheduler's control plane.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/distsql/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client wraps a connection to the scheduler's control-plane gRPC service.
// Security/authentication is an explicit Non-goal, so connections are
// plaintext, matching pkg/executor's outbound pool.
type Client struct {
	conn   *grpc.ClientConn
	client proto.SchedulerGrpcClient
}

// NewClient dials the scheduler at addr (host:port).
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(proto.CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to scheduler at %s: %w", addr, err)
	}
	return &Client{conn: conn, client: proto.NewSchedulerGrpcClient(conn)}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ExecuteQuery submits sql for execution and returns its assigned job id.
func (c *Client) ExecuteQuery(ctx context.Context, sql string) (string, error) {
	res, err := c.client.ExecuteQuery(ctx, &proto.ExecuteQueryParams{SQL: sql})
	if err != nil {
		return "", fmt.Errorf("execute query: %w", err)
	}
	return res.JobID, nil
}

// GetJobStatus fetches a job's current lifecycle status.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*proto.JobStatus, error) {
	res, err := c.client.GetJobStatus(ctx, &proto.GetJobStatusParams{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("get job status: %w", err)
	}
	return res.Status, nil
}

// AwaitJobCompletion polls GetJobStatus until the job reaches Completed or
// Failed, or ctx is done.
func (c *Client) AwaitJobCompletion(ctx context.Context, jobID string, pollInterval time.Duration) (*proto.JobStatus, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		status, err := c.GetJobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Status == "completed" || status.Status == "failed" {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
