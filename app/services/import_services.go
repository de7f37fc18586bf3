package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/pricelist"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/http"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
	"github.com/shashiranjanraj/bazaar/pkg/workerpool"
)

// ImportResult summarises a successful price-list import.
type ImportResult struct {
	ShopID     uint   `json:"shop_id"`
	Shop       string `json:"shop"`
	Categories int    `json:"categories"`
	Products   int    `json:"products"`
	Archive    string `json:"archive,omitempty"`
}

// ImportService replaces a partner's catalog with the price list published
// at a URL.
type ImportService struct {
	db      *gorm.DB
	repo    *repositories.PriceListRepository
	catalog *repositories.CatalogRepository
	disk    storage.Disk
	now     func() time.Time
}

// NewImportService archives documents on disk; a nil disk disables archiving.
func NewImportService(db *gorm.DB, disk storage.Disk) *ImportService {
	return &ImportService{
		db:      db,
		repo:    repositories.NewPriceListRepository(db),
		catalog: repositories.NewCatalogRepository(db),
		disk:    disk,
		now:     time.Now,
	}
}

// Import fetches rawURL and replaces the catalog of the caller's shop.
func (s *ImportService) Import(ctx context.Context, userID uint, rawURL string) (ImportResult, error) {
	start := time.Now()
	res, err := s.importURL(ctx, userID, rawURL)

	outcome := "success"
	if err != nil {
		outcome = string(apperr.CodeOf(err))
	}
	metrics.PriceListImports.WithLabelValues(outcome).Inc()
	metrics.PriceListImportDuration.Observe(time.Since(start).Seconds())

	log := logger.WithCtx(ctx).With("user_id", userID, "url", rawURL)
	if err != nil {
		log.Warn("pricelist: import failed", "error", err)
		return ImportResult{}, err
	}
	log.Info("pricelist: imported", "shop_id", res.ShopID, "products", res.Products)
	return res, nil
}

func (s *ImportService) importURL(ctx context.Context, userID uint, rawURL string) (ImportResult, error) {
	if errs := validate.Var("url", rawURL, "required,http_url"); validate.HasErrors(errs) {
		return ImportResult{}, apperr.Invalid("Validation failed", errs)
	}

	raw, err := fetch(ctx, rawURL)
	if err != nil {
		return ImportResult{}, err
	}

	doc, err := pricelist.Parse(raw)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.apply(ctx, tx, userID, rawURL, doc)
		return err
	})
	if err != nil {
		if apperr.CodeOf(err) != apperr.Internal {
			return ImportResult{}, err
		}
		return ImportResult{}, apperr.Wrap(apperr.Internal, "Price list could not be saved", err)
	}

	res.Archive = s.archive(ctx, res.ShopID, raw)

	event.Fire(ctx, events.PriceListImported, events.PriceListImportedPayload{
		ShopID: res.ShopID, Shop: res.Shop, UserID: userID, Categories: res.Categories, Products: res.Products, Archive: res.Archive,
	})
	event.Fire(ctx, events.CatalogChanged, events.CatalogChangedPayload{ShopID: res.ShopID})
	return res, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := http.Get(url).
		WithContext(ctx).
		Header("Accept", "application/yaml, text/yaml, */*").
		Timeout(config.ImportFetchTimeout()).
		MaxBytes(config.ImportMaxBytes()).
		Send()
	if errors.Is(err, http.ErrTooLarge) {
		return nil, apperr.Newf(apperr.Malformed, "Price list is larger than %d bytes", config.ImportMaxBytes())
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.UpstreamFetch, "Price list could not be downloaded", err)
	}
	if !resp.OK() {
		return nil, apperr.Newf(apperr.UpstreamFetch, "Price list server answered with status %d", resp.StatusCode)
	}
	return resp.Raw, nil
}

// apply writes doc inside tx. The caller's shop is matched by owner first,
// then by name; a name owned by someone else is Forbidden.
func (s *ImportService) apply(ctx context.Context, tx *gorm.DB, userID uint, url string, doc *pricelist.Document) (ImportResult, error) {
	repo := s.repo.WithTx(tx)

	shop, err := s.ownShop(ctx, tx, repo, userID, doc.Shop)
	if err != nil {
		return ImportResult{}, err
	}
	shop.Name = doc.Shop
	shop.URL = &url
	if err := repo.SaveShop(ctx, &shop); err != nil {
		return ImportResult{}, fmt.Errorf("save shop: %w", err)
	}

	cats, err := s.categories(ctx, repo, shop.ID, doc.Categories)
	if err != nil {
		return ImportResult{}, err
	}
	if err := repo.AttachCategories(ctx, &shop, cats); err != nil {
		return ImportResult{}, fmt.Errorf("attach categories: %w", err)
	}

	if _, err := repo.RetireOffers(ctx, shop.ID); err != nil {
		return ImportResult{}, fmt.Errorf("retire offers: %w", err)
	}

	paramIDs, err := repo.Parameters(ctx, doc.ParameterNames())
	if err != nil {
		return ImportResult{}, fmt.Errorf("parameters: %w", err)
	}

	for _, g := range doc.Goods {
		product, err := repo.Product(ctx, g.Name, g.CategoryID)
		if err != nil {
			return ImportResult{}, fmt.Errorf("product %q: %w", g.Name, err)
		}
		info := models.ProductInfo{
			ProductID:  product.ID,
			ShopID:     shop.ID,
			ExternalID: g.ID,
			Model:      g.Model,
			Quantity:   g.Quantity,
			Price:      g.Price,
			PriceRRC:   g.PriceRRC,
		}
		for _, p := range g.Parameters {
			info.Parameters = append(info.Parameters, models.ProductParameter{
				ParameterID: paramIDs[p.Name],
				Value:       p.Value,
			})
		}
		if err := repo.CreateOffer(ctx, &info); err != nil {
			return ImportResult{}, fmt.Errorf("offer %d: %w", g.ID, err)
		}
	}

	return ImportResult{
		ShopID:     shop.ID,
		Shop:       shop.Name,
		Categories: len(cats),
		Products:   len(doc.Goods),
	}, nil
}

// categories creates the document's categories. A category listed by
// other shops keeps its name; the document must agree with it.
func (s *ImportService) categories(ctx context.Context, repo *repositories.PriceListRepository, shopID uint, in []pricelist.Category) ([]models.Category, error) {
	out := make([]models.Category, 0, len(in))
	conflicts := map[string]string{}
	for i, c := range in {
		stored, err := repo.EnsureCategory(ctx, models.Category{ID: c.ID, Name: c.Name})
		if err != nil {
			return nil, fmt.Errorf("category %d: %w", c.ID, err)
		}
		if stored.Name != c.Name {
			shared, err := repo.CategoryShared(ctx, c.ID, shopID)
			if err != nil {
				return nil, fmt.Errorf("category %d: %w", c.ID, err)
			}
			if shared {
				conflicts[validate.Index("categories", i)+".name"] =
					fmt.Sprintf("Category %d is named %q by other shops.", c.ID, stored.Name)
				continue
			}
			if err := repo.RenameCategory(ctx, c.ID, c.Name); err != nil {
				return nil, fmt.Errorf("rename category %d: %w", c.ID, err)
			}
			stored.Name = c.Name
		}
		out = append(out, stored)
	}
	if len(conflicts) > 0 {
		return nil, &apperr.Error{
			Code:    apperr.Malformed,
			Message: "Price list conflicts with shared categories",
			Fields:  conflicts,
		}
	}
	return out, nil
}

func (s *ImportService) ownShop(ctx context.Context, tx *gorm.DB, repo *repositories.PriceListRepository, userID uint, name string) (models.Shop, error) {
	named, err := repo.ShopByName(ctx, name)
	switch {
	case err == nil:
		if named.UserID == nil || *named.UserID != userID {
			return models.Shop{}, apperr.Newf(apperr.Forbidden, "Shop %q belongs to another partner", name)
		}
		return named, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.Shop{}, fmt.Errorf("find shop: %w", err)
	}

	owned, err := s.catalog.WithTx(tx).ShopByOwner(ctx, userID)
	switch {
	case err == nil:
		return owned, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.Shop{UserID: &userID, State: true}, nil
	default:
		return models.Shop{}, fmt.Errorf("find own shop: %w", err)
	}
}

// archive stores the raw document and returns its path, or "" when
// archiving is off or failed.
func (s *ImportService) archive(ctx context.Context, shopID uint, raw []byte) string {
	if s.disk == nil {
		return ""
	}
	path := fmt.Sprintf("pricelists/%d/%s-%s.yaml", shopID, s.now().UTC().Format("20060102T150405Z"), uuid.NewString())
	if err := s.disk.Put(ctx, path, raw); err != nil {
		logger.WithCtx(ctx).Error("pricelist: archive failed", "shop_id", shopID, "error", err)
		return ""
	}
	return path
}

// ─── Scheduled refresh ────────────────────────────────────────────────────────

// RefreshReport counts the outcome of a scheduled refresh.
type RefreshReport struct {
	Shops     int
	Succeeded int
	Failed    int
}

// RefreshAll re-imports every active shop that has a stored URL, running at
// most workers imports at once.
func (s *ImportService) RefreshAll(ctx context.Context, workers int) (RefreshReport, error) {
	shops, err := s.catalog.RefreshableShops(ctx)
	if err != nil {
		return RefreshReport{}, apperr.Wrap(apperr.Internal, "Could not list shops", err)
	}

	var ok, failed atomic.Int64
	err = workerpool.Each(ctx, workers, shops, func(ctx context.Context, shop models.Shop) {
		if _, err := s.Import(ctx, *shop.UserID, *shop.URL); err != nil {
			failed.Add(1)
			return
		}
		ok.Add(1)
	})

	report := RefreshReport{Shops: len(shops), Succeeded: int(ok.Load()), Failed: int(failed.Load())}
	logger.WithCtx(ctx).Info("pricelist: refresh finished",
		"shops", report.Shops, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, err
}
