package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/distsql/pkg/api"
	"github.com/cuemby/distsql/pkg/client"
	"github.com/cuemby/distsql/pkg/executor"
	"github.com/cuemby/distsql/pkg/log"
	"github.com/cuemby/distsql/pkg/metrics"
	"github.com/cuemby/distsql/pkg/plan"
	"github.com/cuemby/distsql/pkg/scheduler"
	"github.com/cuemby/distsql/pkg/state"
	"github.com/cuemby/distsql/pkg/storage"
	"github.com/cuemby/distsql/proto"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "distsql",
	Short:   "distsql - distributed SQL query scheduler",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("distsql version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statusCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler's gRPC control plane and metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		bindAddr, _ := cmd.Flags().GetString("bind-addr")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		namespace, _ := cmd.Flags().GetString("namespace")
		backend, _ := cmd.Flags().GetString("backend")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		policyFlag, _ := cmd.Flags().GetString("policy")

		policy := scheduler.Policy(policyFlag)
		if policy != scheduler.PolicyPullStaged && policy != scheduler.PolicyPushStaged {
			return fmt.Errorf("--policy must be %q or %q", scheduler.PolicyPullStaged, scheduler.PolicyPushStaged)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store, err := openStore(ctx, backend, dataDir, redisAddr)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer store.Close()

		st := state.New(store, namespace, plan.DefaultPhysicalCodec{})
		pool := executor.NewPool()
		defer pool.Close()

		srv := scheduler.NewServer(st, pool, policy)
		scaler := scheduler.NewExternalScaler(srv)

		collector := metrics.NewCollector(st)
		collector.Start()
		defer collector.Stop()

		fmt.Println("Starting distsql scheduler...")
		fmt.Printf("  Namespace: %s\n", namespace)
		fmt.Printf("  State backend: %s\n", backend)
		fmt.Printf("  Dispatch policy: %s\n", policy)

		go srv.RunDispatchLoop(ctx)

		health := api.NewHealthServer(st)
		go func() {
			if err := health.Start(metricsAddr); err != nil && err != http.ErrServerClosed {
				log.Logger.Error().Err(err).Msg("health/metrics server error")
			}
		}()
		fmt.Printf("✓ Health/metrics endpoint: http://%s/{health,ready,metrics}\n", metricsAddr)

		lis, err := net.Listen("tcp", bindAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", bindAddr, err)
		}
		grpcServer := grpc.NewServer()
		proto.RegisterSchedulerGrpcServer(grpcServer, srv)
		proto.RegisterExternalScalerServer(grpcServer, scaler)

		errCh := make(chan error, 1)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
		fmt.Printf("✓ gRPC control plane listening on %s\n", bindAddr)
		fmt.Println()
		fmt.Println("Scheduler is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		}

		grpcServer.GracefulStop()
		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("bind-addr", "127.0.0.1:8080", "Address for the gRPC control plane")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus metrics endpoint")
	serveCmd.Flags().String("namespace", "default", "Key namespace segregating this scheduler's state")
	serveCmd.Flags().String("backend", "bolt", "State backend: bolt or redis")
	serveCmd.Flags().String("data-dir", "./distsql-data", "Data directory for the bolt backend")
	serveCmd.Flags().String("redis-addr", "127.0.0.1:6379", "Address for the redis backend")
	serveCmd.Flags().String("policy", "pull-staged", "Dispatch policy: pull-staged or push-staged")
}

func openStore(ctx context.Context, backend, dataDir, redisAddr string) (storage.Store, error) {
	switch backend {
	case "bolt":
		return storage.NewBoltStore(dataDir)
	case "redis":
		return storage.NewRedisStore(ctx, storage.RedisConfig{Addr: redisAddr})
	default:
		return nil, fmt.Errorf("unknown backend %q (want bolt or redis)", backend)
	}
}

var queryCmd = &cobra.Command{
	Use:   "query SQL",
	Short: "Submit a query and wait for it to complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("scheduler")
		c, err := client.NewClient(addr)
		if err != nil {
			return fmt.Errorf("connect to scheduler: %w", err)
		}
		defer c.Close()

		ctx := context.Background()
		jobID, err := c.ExecuteQuery(ctx, args[0])
		if err != nil {
			return fmt.Errorf("execute query: %w", err)
		}
		fmt.Printf("Job submitted: %s\n", jobID)

		status, err := c.AwaitJobCompletion(ctx, jobID, 200*time.Millisecond)
		if err != nil {
			return fmt.Errorf("await job completion: %w", err)
		}
		fmt.Printf("Status: %s\n", status.Status)
		if status.Error != "" {
			fmt.Printf("Error: %s\n", status.Error)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status JOB_ID",
	Short: "Get a job's current status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("scheduler")
		c, err := client.NewClient(addr)
		if err != nil {
			return fmt.Errorf("connect to scheduler: %w", err)
		}
		defer c.Close()

		status, err := c.GetJobStatus(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get job status: %w", err)
		}
		fmt.Printf("Job: %s\nStatus: %s\n", status.JobID, status.Status)
		if status.Error != "" {
			fmt.Printf("Error: %s\n", status.Error)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().String("scheduler", "127.0.0.1:8080", "Scheduler gRPC address")
	statusCmd.Flags().String("scheduler", "127.0.0.1:8080", "Scheduler gRPC address")
}
