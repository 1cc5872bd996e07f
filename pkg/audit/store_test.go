package audit

import (
	"context"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/smilearc/casegen/internal/domain"
)

var _ = Describe("SQLStore", func() {
	var (
		ctx   context.Context
		store *SQLStore
		db    *sqlx.DB
		mock  sqlmock.Sqlmock
		newID func() string
	)

	BeforeEach(func() {
		ctx = context.Background()

		mockDB, mockSQL, err := sqlmock.New()
		Expect(err).ToNot(HaveOccurred())

		db = sqlx.NewDb(mockDB, "sqlmock")
		mock = mockSQL

		logger := logrus.New()
		logger.SetLevel(logrus.FatalLevel)

		newID = func() string { return "generated-id" }
		store = NewSQLStore(db, Policy{StoreFullAuditData: true}, newID, logger)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("Append", func() {
		It("writes an initial, non-regenerated record", func() {
			now := time.Now().UTC()
			mock.ExpectQuery(`INSERT INTO audit_records`).
				WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

			record, err := store.Append(ctx, WriteInput{
				UserID:          "dev_user_001",
				DocumentKind:    domain.DocumentKindTreatmentSummary,
				DocumentVersion: "treatment_summary.v2",
				InputData:       map[string]interface{}{"tier": "moderate"},
				OutputData:      map[string]interface{}{"title": "t", "summary": "s"},
				Status:          domain.StatusSuccess,
				Seed:            42,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(record.ID).To(Equal("generated-id"))
			Expect(record.Seed).To(Equal(42))
		})

		It("rejects a regeneration missing previous_version_uuid", func() {
			_, err := store.Append(ctx, WriteInput{
				UserID:        "dev_user_001",
				DocumentKind:  domain.DocumentKindTreatmentSummary,
				IsRegenerated: true,
				Seed:          43,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a regeneration whose parent does not exist", func() {
			mock.ExpectQuery(`SELECT id, user_id, document_kind, document_version`).
				WithArgs("missing-parent").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "user_id", "document_kind", "document_version", "input_data", "output_data",
					"model_used", "tokens_used", "generation_time_ms", "status", "error_message",
					"seed", "is_regenerated", "previous_version_uuid", "request_id", "created_at",
				}))

			_, err := store.Append(ctx, WriteInput{
				UserID:              "dev_user_001",
				DocumentKind:        domain.DocumentKindTreatmentSummary,
				IsRegenerated:       true,
				PreviousVersionUUID: "missing-parent",
				Seed:                43,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a regeneration whose seed does not follow parent.seed+1", func() {
			now := time.Now().UTC()
			mock.ExpectQuery(`SELECT id, user_id, document_kind, document_version`).
				WithArgs("parent-1").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "user_id", "document_kind", "document_version", "input_data", "output_data",
					"model_used", "tokens_used", "generation_time_ms", "status", "error_message",
					"seed", "is_regenerated", "previous_version_uuid", "request_id", "created_at",
				}).AddRow("parent-1", "dev_user_001", "treatment_summary", "treatment_summary.v2",
					[]byte(`{}`), []byte(`{}`), "claude", nil, nil, "success", "", 42, false, "", "", now))

			_, err := store.Append(ctx, WriteInput{
				UserID:              "dev_user_001",
				DocumentKind:        domain.DocumentKindTreatmentSummary,
				IsRegenerated:       true,
				PreviousVersionUUID: "parent-1",
				Seed:                99,
			})
			Expect(err).To(HaveOccurred())
		})

		It("accepts a regeneration with seed = parent.seed + 1", func() {
			now := time.Now().UTC()
			mock.ExpectQuery(`SELECT id, user_id, document_kind, document_version`).
				WithArgs("parent-1").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "user_id", "document_kind", "document_version", "input_data", "output_data",
					"model_used", "tokens_used", "generation_time_ms", "status", "error_message",
					"seed", "is_regenerated", "previous_version_uuid", "request_id", "created_at",
				}).AddRow("parent-1", "dev_user_001", "treatment_summary", "treatment_summary.v2",
					[]byte(`{}`), []byte(`{}`), "claude", nil, nil, "success", "", 42, false, "", "", now))

			mock.ExpectQuery(`INSERT INTO audit_records`).
				WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

			record, err := store.Append(ctx, WriteInput{
				UserID:              "dev_user_001",
				DocumentKind:        domain.DocumentKindTreatmentSummary,
				IsRegenerated:       true,
				PreviousVersionUUID: "parent-1",
				Seed:                43,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(record.Seed).To(Equal(43))
		})
	})

	Describe("Get", func() {
		It("returns nil, nil when the record does not exist", func() {
			mock.ExpectQuery(`SELECT id, user_id, document_kind, document_version`).
				WithArgs("missing").
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "user_id", "document_kind", "document_version", "input_data", "output_data",
					"model_used", "tokens_used", "generation_time_ms", "status", "error_message",
					"seed", "is_regenerated", "previous_version_uuid", "request_id", "created_at",
				}))

			record, err := store.Get(ctx, "missing")
			Expect(err).ToNot(HaveOccurred())
			Expect(record).To(BeNil())
		})
	})
})
