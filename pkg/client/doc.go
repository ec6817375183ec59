/*
Package client is a small Go client for the distsql scheduler's gRPC
control plane: submit a query, get back a job id, poll for completion.

	c, err := client.NewClient("scheduler:8080")
	jobID, err := c.ExecuteQuery(ctx, "SELECT count(*) FROM events")
	status, err := c.AwaitJobCompletion(ctx, jobID, 200*time.Millisecond)

Connections are plaintext: authentication is out of scope for this
scheduler, matching pkg/executor's outbound client pool.
*/
package client
