package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/service"
	"github.com/garyjia/quote-validator/internal/config"
	"github.com/garyjia/quote-validator/internal/container"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/quote"
	"github.com/garyjia/quote-validator/internal/rules"
	"github.com/garyjia/quote-validator/pkg/utils"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <template.xlsx>",
		Short: "Print the field schema of a template spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			data, err := readInput(args[0], cfg.Validation.MaxUploadMB)
			if err != nil {
				return err
			}
			analysis, err := newValidation(cfg, nil, logger).AnalyzeTemplateFile(data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analysis)
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <quote.xlsx>",
		Short: "Print the structured quote extracted from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			data, err := readInput(args[0], cfg.Validation.MaxUploadMB)
			if err != nil {
				return err
			}
			q, err := newValidation(cfg, nil, logger).ParseQuoteFile(data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), q)
		},
	}
}

func newValidateCmd() *cobra.Command {
	var (
		templatePath string
		useAI        bool
	)

	cmd := &cobra.Command{
		Use:   "validate --template <template.xlsx> <quote.xlsx>",
		Short: "Validate a quote against a template and print the findings",
		Long: `Validate runs the math, completeness, policy and consistency checks and,
with --ai, the AI review. The report is printed as JSON. The exit code is 2
when the overall status is fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var reviewer service.FindingReviewer
			if useAI {
				r, err := newReviewer(cmd, cfg, logger)
				if err != nil {
					return err
				}
				reviewer = r
			}
			validation := newValidation(cfg, reviewer, logger)

			tmplData, err := readInput(templatePath, cfg.Validation.MaxUploadMB)
			if err != nil {
				return err
			}
			analysis, err := validation.AnalyzeTemplateFile(tmplData)
			if err != nil {
				return fmt.Errorf("template: %w", err)
			}

			quoteData, err := readInput(args[0], cfg.Validation.MaxUploadMB)
			if err != nil {
				return err
			}
			q, err := validation.ParseQuoteFile(quoteData)
			if err != nil {
				return fmt.Errorf("quote: %w", err)
			}

			tmpl := &entity.Template{
				Name:           filepath.Base(templatePath),
				RequiredFields: analysis.Fields,
				Status:         entity.TemplateStatusActive,
			}
			findings := validation.RunValidation(cmd.Context(), q, tmpl)
			report := service.BuildReport(nil, findings)

			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.OverallStatus == entity.OverallFail {
				return errQuoteFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template spreadsheet the quote must conform to")
	cmd.Flags().BoolVar(&useAI, "ai", false, "Run the AI review using OPENAI_API_KEY or GEMINI_API_KEY")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newValidation(cfg *config.Config, reviewer service.FindingReviewer, logger *zap.Logger) service.ValidationService {
	vc := cfg.Validation
	extractor := quote.NewExtractor(quote.Options{
		DefaultTaxRate:  vc.DefaultTaxRate,
		DefaultCurrency: vc.DefaultCurrency,
	})
	engine := rules.NewEngine(rules.Config{
		MathTolerance:      vc.MathTolerance,
		MaxDiscountPercent: vc.MaxDiscountPercent,
	}, logger)
	return service.NewValidationService(extractor, engine, reviewer, utils.NewServiceLogger(logger))
}

// newReviewer picks the configured AI provider, falling back to whichever
// API key is present when the config names none
func newReviewer(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (service.FindingReviewer, error) {
	ai := cfg.AI
	if ai.Provider == config.ProviderNone || ai.Provider == "" {
		switch {
		case ai.OpenAIAPIKey != "":
			ai.Provider = config.ProviderOpenAI
		case ai.GeminiAPIKey != "":
			ai.Provider = config.ProviderGemini
		}
	}

	backend, err := container.ProvideAIReviewer(cmd.Context(), &ai, logger)
	if err != nil {
		return nil, err
	}
	r, err := container.ProvideReviewer(backend, &ai, logger)
	if err != nil {
		return nil, err
	}
	if !r.Available() {
		logger.Warn("No AI backend configured, running deterministic checks only")
	}
	return r, nil
}
