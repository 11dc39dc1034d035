// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	httpin "solana-bridge/internal/adapters/in/http"
	"solana-bridge/internal/adapters/in/http/middleware"
	dbadapter "solana-bridge/internal/adapters/out/db"
	fsadapter "solana-bridge/internal/adapters/out/firestore"
	gcsadapter "solana-bridge/internal/adapters/out/gcs"
	"solana-bridge/internal/adapters/out/memory"
	usecase "solana-bridge/internal/application/usecase"
	bridgedom "solana-bridge/internal/domain/bridge"
	appcfg "solana-bridge/internal/infra/config"
	"solana-bridge/internal/infra/database"
	firestoreinfra "solana-bridge/internal/infra/firestore"
	"solana-bridge/internal/infra/simulator"
	solanainfra "solana-bridge/internal/infra/solana"
	"solana-bridge/internal/program"
)

// Container は main.go から使う依存オブジェクトの束。
type Container struct {
	Config *appcfg.Config

	BridgeUC  *usecase.BridgeUsecase
	Authority common.PublicKey
	ProgramID common.PublicKey

	auth       *middleware.OperatorAuth
	devEnabled bool

	cleanupFn []func()
}

// NewContainer loads config from env and builds the container.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, err
	}
	return Build(ctx, cfg)
}

// Build wires executor / journal / stores / auth according to cfg.
func Build(ctx context.Context, cfg *appcfg.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	// 1) program id
	c.ProgramID = program.DefaultProgramID
	if s := strings.TrimSpace(cfg.BridgeProgramID); s != "" {
		pk, err := bridgedom.ParsePublicKey(s)
		if err != nil {
			return nil, fmt.Errorf("di: BRIDGE_PROGRAM_ID: %w", err)
		}
		c.ProgramID = pk
	}

	// 2) backend authority
	authority, err := loadAuthority(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Authority = authority.PublicKey

	// 3) executor
	var (
		executor usecase.BridgeExecutor
		holdings usecase.HoldingReader
		dev      usecase.DevFunder
	)
	switch cfg.Executor {
	case appcfg.ExecutorSolana:
		ex := solanainfra.NewExecutor(cfg.SolanaRPCURL, c.ProgramID, authority)
		executor, holdings = ex, ex
		log.Printf("[di] executor=solana program=%s", c.ProgramID.ToBase58())
	default:
		sim := simulator.New(c.ProgramID)
		executor, holdings, dev = sim, sim, sim
		c.devEnabled = true
		log.Printf("[di] executor=simulator program=%s", c.ProgramID.ToBase58())
	}

	// 4) journal
	journal, err := c.buildJournal(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 5) descriptor store (optional)
	var descriptors usecase.DescriptorStore
	if bucket := strings.TrimSpace(cfg.GCSBucket); bucket != "" {
		gcs, err := storage.NewClient(ctx, firestoreinfra.ClientOptions(cfg.FirestoreCredentialsFile)...)
		if err != nil {
			return nil, fmt.Errorf("di: storage.NewClient: %w", err)
		}
		c.cleanupFn = append(c.cleanupFn, func() { _ = gcs.Close() })
		descriptors = gcsadapter.NewDescriptorStoreGCS(gcs, bucket)
		log.Printf("[di] descriptor store bucket=%s", bucket)
	} else {
		log.Printf("[di] descriptor store not configured (GCS_BUCKET empty)")
	}

	// 6) operator auth (optional)
	if cfg.RequireAuth {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.GetFirebaseProjectID()},
			firestoreinfra.ClientOptions(cfg.FirestoreCredentialsFile)...)
		if err != nil {
			return nil, fmt.Errorf("di: firebase.NewApp: %w", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("di: firebase auth: %w", err)
		}
		c.auth = middleware.NewOperatorAuth(authClient, cfg.OperatorUIDs)
		log.Printf("[di] operator auth enabled operators=%d", len(cfg.OperatorUIDs))
	}

	// 7) usecase
	uc, err := usecase.NewBridgeUsecase(executor, journal, descriptors, c.ProgramID, c.Authority, cfg.BridgeSeed)
	if err != nil {
		return nil, err
	}
	uc.WithHoldingReader(holdings)
	if dev != nil {
		uc.WithDevFunder(dev)
	}
	c.BridgeUC = uc

	log.Printf("[di] bridge=%s seed=%d authority=%s",
		uc.BridgeAddress().ToBase58(), cfg.BridgeSeed, c.Authority.ToBase58())
	ok = true
	return c, nil
}

// RouterDeps returns deps for httpin.NewRouter.
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		BridgeUC:   c.BridgeUC,
		Auth:       c.auth,
		CORSOrigin: c.Config.CORSAllowedOrigin,
		DevEnabled: c.devEnabled,
	}
}

// Close は終了時に呼んで安全にリソースを閉じる。
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.cleanupFn) - 1; i >= 0; i-- {
		c.cleanupFn[i]()
	}
	c.cleanupFn = nil
}

func (c *Container) buildJournal(ctx context.Context, cfg *appcfg.Config) (bridgedom.RequestJournal, error) {
	switch cfg.Journal {
	case appcfg.JournalFirestore:
		cw, err := firestoreinfra.NewClient(ctx, cfg.GetFirestoreProjectID(), cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		c.cleanupFn = append(c.cleanupFn, func() { _ = cw.Close() })
		log.Printf("[di] journal=firestore")
		return fsadapter.NewRequestJournalFS(cw.Client), nil

	case appcfg.JournalPostgres:
		db, err := database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		c.cleanupFn = append(c.cleanupFn, func() { _ = db.Close() })
		repo := dbadapter.NewRequestJournalPG(db.Client)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		log.Printf("[di] journal=postgres")
		return repo, nil

	default:
		log.Printf("[di] journal=memory (not durable)")
		return memory.NewRequestJournalMem(), nil
	}
}

// loadAuthority resolves the backend key: Secret Manager > keypair file.
// simulator では未設定ならプロセス毎の一時鍵を使う。
func loadAuthority(ctx context.Context, cfg *appcfg.Config) (types.Account, error) {
	switch {
	case strings.TrimSpace(cfg.AuthoritySecret) != "":
		acc, err := solanainfra.LoadAuthorityFromSecret(ctx, cfg.AuthoritySecret)
		if err != nil {
			return types.Account{}, fmt.Errorf("di: load authority: %w", err)
		}
		return acc, nil
	case strings.TrimSpace(cfg.AuthorityKeypair) != "":
		acc, err := solanainfra.LoadAuthorityFromFile(cfg.AuthorityKeypair)
		if err != nil {
			return types.Account{}, fmt.Errorf("di: load authority: %w", err)
		}
		return acc, nil
	case cfg.Executor == appcfg.ExecutorSimulator:
		acc := types.NewAccount()
		log.Printf("[di] WARN: no authority configured; using ephemeral key %s", acc.PublicKey.ToBase58())
		return acc, nil
	default:
		return types.Account{}, fmt.Errorf("di: no backend authority configured")
	}
}
