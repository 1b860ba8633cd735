package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/shared/config"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// GenerateKeysUseCase produces a batch of keys from a pattern or a stored
// generator template. Placeholders are expanded once per batch so every
// code in the batch shares the same date and product fragments; only the
// mask fill varies per key. Individual code failures are tolerated, the
// rest of the batch still lands.
type GenerateKeysUseCase struct {
	keyRepo       license.KeyRepository
	generatorRepo license.GeneratorRepository
	sequenceRepo  license.SequenceRepository
	products      license.ProductProvider
	txManager     TransactionManager
	publisher     EventPublisher
	clock         license.Clock
	policy        config.LicenseConfig
	logger        logger.Interface
}

func NewGenerateKeysUseCase(
	keyRepo license.KeyRepository,
	generatorRepo license.GeneratorRepository,
	sequenceRepo license.SequenceRepository,
	products license.ProductProvider,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	policy config.LicenseConfig,
	logger logger.Interface,
) *GenerateKeysUseCase {
	return &GenerateKeysUseCase{
		keyRepo:       keyRepo,
		generatorRepo: generatorRepo,
		sequenceRepo:  sequenceRepo,
		products:      products,
		txManager:     txManager,
		publisher:     publisher,
		clock:         clock,
		policy:        policy,
		logger:        logger,
	}
}

// GenerateKeysResult reports how the batch went. Skipped counts codes that
// collided with existing ones or failed to persist.
type GenerateKeysResult struct {
	Keys      []*dto.KeyDTO
	Generated int
	Skipped   int
}

func (uc *GenerateKeysUseCase) Execute(ctx context.Context, req dto.GenerateKeysRequest) (*GenerateKeysResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	plan, err := uc.resolvePlan(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &GenerateKeysResult{}
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		now := uc.clock.Now()
		sku, err := uc.productSKU(txCtx, req.ProductID)
		if err != nil {
			return err
		}

		base := license.ExpandPlaceholders(plan.pattern, license.PlaceholderContext{
			ProductID:  req.ProductID,
			ProductSKU: sku,
			Now:        now,
		})
		width := license.MaskCount(base)

		var position uint64
		if req.Sequential {
			position, err = uc.sequenceRepo.Position(txCtx, req.ProductID)
			if err != nil {
				return fmt.Errorf("failed to read sequence position: %w", err)
			}
		}

		for i := 0; i < req.Quantity; i++ {
			var chars string
			if req.Sequential {
				chars = license.SequentialChars(position+uint64(i), width)
			} else {
				chars, err = license.RandomChars(plan.charset, width)
				if err != nil {
					return err
				}
			}
			code := license.FillMask(base, chars)

			key, err := uc.storeKey(txCtx, req, plan, code)
			if err != nil {
				uc.logger.Warnw("skipping generated code",
					"code_prefix", truncatedOf(code), "error", err)
				result.Skipped++
				continue
			}

			event := license.NewKeyEvent(license.EventKeyCreated, key, now)
			if err := uc.publisher.Publish(event); err != nil {
				uc.logger.Warnw("failed to publish event", "type", license.EventKeyCreated, "error", err)
			}

			result.Keys = append(result.Keys, dto.ToKeyDTO(key))
			result.Generated++
		}

		// The counter moves by the number of draws, not the number of
		// keys that survived, so a rerun never reissues a skipped number.
		if req.Sequential {
			if err := uc.sequenceRepo.Advance(txCtx, req.ProductID, position+uint64(req.Quantity)); err != nil {
				return fmt.Errorf("failed to advance sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("key batch generated",
		"product_id", req.ProductID,
		"generated", result.Generated,
		"skipped", result.Skipped)
	return result, nil
}

// generationPlan is the merged pattern/charset/defaults of the request and
// its optional generator template.
type generationPlan struct {
	pattern         string
	charset         string
	validFor        int
	activationLimit int
}

// resolvePlan merges the request with its generator template. Request
// fields win over template fields; the configured default charset is the
// last resort.
func (uc *GenerateKeysUseCase) resolvePlan(ctx context.Context, req dto.GenerateKeysRequest) (*generationPlan, error) {
	plan := &generationPlan{
		pattern:         req.Pattern,
		charset:         req.Charset,
		validFor:        req.ValidFor,
		activationLimit: req.ActivationLimit,
	}

	if req.GeneratorID != 0 {
		generator, err := uc.generatorRepo.FindByID(ctx, req.GeneratorID)
		if err != nil {
			return nil, fmt.Errorf("failed to load generator: %w", err)
		}
		if generator == nil {
			return nil, license.ErrGeneratorNotFound
		}
		if plan.pattern == "" {
			plan.pattern = generator.Pattern()
		}
		if plan.charset == "" {
			plan.charset = generator.Charset()
		}
		if plan.validFor == 0 {
			plan.validFor = generator.ValidFor()
		}
		if plan.activationLimit == 0 {
			plan.activationLimit = generator.ActivationLimit()
		}
	}

	if plan.pattern == "" {
		return nil, license.ErrMissingGeneratorFields
	}
	if plan.charset == "" {
		plan.charset = uc.policy.DefaultCharset
	}
	return plan, nil
}

func (uc *GenerateKeysUseCase) productSKU(ctx context.Context, productID uint) (string, error) {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return "", fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return "", nil
	}
	return product.SKU, nil
}

// storeKey runs the per-code path: duplicate check, construction and
// insert. Any failure here only costs this one code.
func (uc *GenerateKeysUseCase) storeKey(ctx context.Context, req dto.GenerateKeysRequest, plan *generationPlan, code string) (*license.Key, error) {
	if !uc.policy.AllowDuplicates {
		count, err := uc.keyRepo.CountByCode(ctx, code, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if count > 0 {
			return nil, license.ErrDuplicateCode
		}
	}

	key, err := license.NewKey(code, req.ProductID)
	if err != nil {
		return nil, err
	}
	key.SetSource(vo.SourceAutomatic)
	key.SetValidFor(plan.validFor)
	key.SetActivationLimit(plan.activationLimit)

	if err := uc.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}
