package services

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"trailkeeper/internal/database"
	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/logger"
	"trailkeeper/internal/metrics"
	"trailkeeper/internal/models"
	"trailkeeper/internal/pagination"
	"trailkeeper/internal/requestmeta"
	"trailkeeper/internal/tracking"

	"github.com/jinzhu/inflection"
	"gorm.io/gorm"
)

// Event tables for audit rows that do not come from entity diffs.
const (
	UserActivityTable  = "UserActivities"
	SecurityEventTable = "SecurityEvents"
)

// RedactedValue replaces the value of redacted fields in old/new values.
const RedactedValue = "[REDACTED]"

// auditService is the audit sink. Every write goes through the transaction
// in ctx when there is one, and every failure is logged and returned.
type auditService struct {
	db      *gorm.DB
	redact  map[string]struct{}
	metrics *metrics.Metrics
	clock   func() time.Time
}

// AuditOption configures the audit service.
type AuditOption func(*auditService)

// WithRedactFields masks the named fields in old/new values.
func WithRedactFields(fields ...string) AuditOption {
	return func(s *auditService) {
		for _, f := range fields {
			s.redact[f] = struct{}{}
		}
	}
}

func WithAuditMetrics(m *metrics.Metrics) AuditOption {
	return func(s *auditService) { s.metrics = m }
}

func WithAuditClock(clock func() time.Time) AuditOption {
	return func(s *auditService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, opts ...AuditOption) AuditServicer {
	s := &auditService{
		db:     db,
		redact: make(map[string]struct{}),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now returns the commit timestamp when called inside a unit-of-work and
// the clock otherwise.
func (s *auditService) now(ctx context.Context) time.Time {
	if now, ok := tracking.NowFrom(ctx); ok {
		return now
	}
	return s.clock().UTC().Truncate(time.Microsecond)
}

// WriteChangeRecords converts change records into audit rows and appends
// them. Updates that changed nothing are skipped.
func (s *auditService) WriteChangeRecords(ctx context.Context, records []tracking.ChangeRecord, actor string, now time.Time) ([]models.AuditLog, error) {
	rows := make([]models.AuditLog, 0, len(records))
	for _, rec := range records {
		if rec.IsNoop() {
			s.metrics.IncNoopSuppressed()
			continue
		}
		if rec.TableName == models.AuditTable {
			logger.Named("audit").Warnw("Refusing to audit an audit row", "action", rec.Action)
			continue
		}
		row, err := s.buildRow(rec.TableName, string(rec.Action), rec.KeyValues,
			s.applyRedact(rec.OldValues), s.applyRedact(rec.NewValues), rec.ChangedFields, actor, now)
		if err != nil {
			return nil, s.fail(err, "table", rec.TableName, "action", rec.Action)
		}
		rows = append(rows, *row)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	if err := database.Conn(ctx, s.db).Create(&rows).Error; err != nil {
		return nil, s.fail(err, "records", len(rows))
	}
	for _, row := range rows {
		s.metrics.IncAuditRecord(row.Table, row.Action)
	}
	return rows, nil
}

// WriteEvent appends one free-form event keyed by the subject id. An action
// that is not one of the four audit verbs is stored as CUSTOM with the
// event name in the payload.
func (s *auditService) WriteEvent(ctx context.Context, table, action, subjectID string, payload tracking.Values, actor string) (*models.AuditLog, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "audit event subject is required")
	}
	return s.writeEvent(ctx, table, action, tracking.Values{"id": tracking.String(subjectID)}, payload, actor)
}

func (s *auditService) writeEvent(ctx context.Context, table, action string, key, payload tracking.Values, actor string) (*models.AuditLog, error) {
	if strings.TrimSpace(table) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "audit event table is required")
	}
	if isAuditTable(table) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "audit rows are not audited")
	}
	verb, ok := tracking.ParseAction(action)
	if !ok {
		verb = tracking.ActionCustom
		payload = payload.Clone()
		if payload == nil {
			payload = tracking.Values{}
		}
		payload["event"] = tracking.String(action)
	}

	row, err := s.buildRow(table, string(verb), key, nil, payload, nil, actor, s.now(ctx))
	if err != nil {
		return nil, s.fail(err, "table", table, "action", action)
	}
	if err := database.Conn(ctx, s.db).Create(row).Error; err != nil {
		return nil, s.fail(err, "table", table, "action", action)
	}
	s.metrics.IncAuditRecord(row.Table, row.Action)
	return row, nil
}

// LogEntityChange records an update that happened outside a unit-of-work.
// The entity name is normalized to its table name, so "UserProfile" and
// "user_profiles" address the same rows.
func (s *auditService) LogEntityChange(ctx context.Context, entityName, entityID string, oldValues, newValues tracking.Values, actor string) (*models.AuditLog, error) {
	if strings.TrimSpace(entityID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "entity id is required")
	}
	table := NormalizeTableName(entityName)
	if table == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "entity name is required")
	}
	if isAuditTable(entityName) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "audit rows are not audited")
	}

	changed := changedKeys(oldValues, newValues)
	row, err := s.buildRow(table, string(tracking.ActionUpdated), tracking.Values{"id": tracking.String(entityID)},
		s.applyRedact(onlyKeys(oldValues, changed)), s.applyRedact(onlyKeys(newValues, changed)), changed, actor, s.now(ctx))
	if err != nil {
		return nil, s.fail(err, "table", table)
	}
	if err := database.Conn(ctx, s.db).Create(row).Error; err != nil {
		return nil, s.fail(err, "table", table)
	}
	s.metrics.IncAuditRecord(row.Table, row.Action)
	return row, nil
}

func (s *auditService) LogCustomEvent(ctx context.Context, table, action, entityID string, payload tracking.Values, actor string) error {
	_, err := s.WriteEvent(ctx, table, action, entityID, payload, actor)
	return err
}

// LogUserActivity records something a user did, keyed and attributed to them.
func (s *auditService) LogUserActivity(ctx context.Context, actorID, action string, metadata tracking.Values) error {
	if actorID == "" {
		actorID = tracking.SystemActor
	}
	_, err := s.writeEvent(ctx, UserActivityTable, action, tracking.Values{"userId": tracking.String(actorID)}, metadata, actorID)
	return err
}

// LogSecurityEvent records a security-relevant event with the caller's
// network origin. Empty ipAddress or clientLabel fall back to the origin
// stored in ctx by the request middleware. Caller details never overwrite
// the captured origin keys.
func (s *auditService) LogSecurityEvent(ctx context.Context, actorID, eventType, ipAddress, clientLabel string, details tracking.Values) error {
	if actorID == "" {
		actorID = tracking.SystemActor
	}
	origin := requestmeta.FromContext(ctx)
	if ipAddress == "" {
		ipAddress = origin.IPAddress
	}
	if clientLabel == "" {
		clientLabel = origin.ClientLabel
	}

	payload := details.Clone()
	if payload == nil {
		payload = tracking.Values{}
	}
	payload["ipAddress"] = optional(ipAddress)
	payload["clientLabel"] = optional(clientLabel)
	payload["timestamp"] = tracking.Time(s.now(ctx))
	if clientLabel != "" {
		client := requestmeta.ParseClient(clientLabel)
		payload["clientBrowser"] = optional(client.Browser)
		payload["clientOS"] = optional(client.OS)
		payload["clientBot"] = tracking.Bool(client.Bot)
	}

	_, err := s.writeEvent(ctx, SecurityEventTable, eventType, tracking.Values{"userId": tracking.String(actorID)}, payload, actorID)
	return err
}

// LogBulkChanges writes change records outside a unit-of-work. They are
// written atomically: all of them or none.
func (s *auditService) LogBulkChanges(ctx context.Context, records []tracking.ChangeRecord, actor string) ([]models.AuditLog, error) {
	now := s.now(ctx)
	if _, ok := database.TxFrom(ctx); ok {
		return s.WriteChangeRecords(ctx, records, actor, now)
	}
	var rows []models.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = s.WriteChangeRecords(database.WithTx(ctx, tx), records, actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRecentEntityLogs returns the latest audit rows for one entity, newest
// first. The table may be given as stored or as an entity name.
func (s *auditService) GetRecentEntityLogs(ctx context.Context, table, entityID string, limit int) ([]models.AuditLog, error) {
	if strings.TrimSpace(entityID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "entity id is required")
	}
	keys, err := subjectKeys(entityID)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "entity id is required")
	}
	var logs []models.AuditLog
	err = database.Conn(ctx, s.db).
		Where("table_name IN ? AND key_values IN ?", []string{table, NormalizeTableName(table)}, keys).
		Scopes(pagination.Latest(limit)).
		Find(&logs).Error
	if err != nil {
		logger.Named("audit").Errorw("Failed to query entity audit logs", "table", table, "entity_id", entityID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return logs, nil
}

// subjectKeys lists the stored key shapes an id can appear under: entity
// rows and custom events use "id", activity and security events "userId".
func subjectKeys(id string) ([]string, error) {
	keys := make([]string, 0, 2)
	for _, field := range []string{"id", "userId"} {
		key, err := tracking.EncodeKey(tracking.Values{field: tracking.String(id)})
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// GetActorActivityLogs returns the latest audit rows attributed to an actor, newest first.
func (s *auditService) GetActorActivityLogs(ctx context.Context, actorID string, limit int) ([]models.AuditLog, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "actor id is required")
	}
	var logs []models.AuditLog
	err := database.Conn(ctx, s.db).
		Where("created_by = ?", actorID).
		Scopes(pagination.Latest(limit)).
		Find(&logs).Error
	if err != nil {
		logger.Named("audit").Errorw("Failed to query actor audit logs", "actor", actorID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return logs, nil
}

func (s *auditService) buildRow(table, action string, key, oldValues, newValues tracking.Values, columns []string, actor string, now time.Time) (*models.AuditLog, error) {
	keyJSON, err := tracking.EncodeKey(key)
	if err != nil {
		return nil, err
	}
	oldJSON, err := tracking.EncodeValues(oldValues)
	if err != nil {
		return nil, err
	}
	newJSON, err := tracking.EncodeValues(newValues)
	if err != nil {
		return nil, err
	}
	colsJSON, err := tracking.EncodeColumns(columns)
	if err != nil {
		return nil, err
	}

	row := &models.AuditLog{
		Table:           table,
		Action:          action,
		KeyValues:       keyJSON,
		OldValues:       oldJSON,
		NewValues:       newJSON,
		AffectedColumns: colsJSON,
	}
	row.AssignID()
	tracking.Stamp(row, tracking.Added, actor, now)
	return row, nil
}

func (s *auditService) applyRedact(vs tracking.Values) tracking.Values {
	if len(vs) == 0 || len(s.redact) == 0 {
		return vs
	}
	out := vs.Clone()
	for k := range out {
		if _, ok := s.redact[k]; ok {
			out[k] = tracking.String(RedactedValue)
		}
	}
	return out
}

func (s *auditService) fail(err error, keysAndValues ...interface{}) error {
	s.metrics.IncAuditWriteFailure()
	logger.Named("audit").Errorw("Failed to write audit record", append(keysAndValues, "error", err)...)
	return apperrors.Wrap(apperrors.ErrAuditPersistence, err)
}

// NormalizeTableName maps an entity name to its table name: "UserProfile"
// becomes "user_profiles". Names that already look like table names are
// left as they are.
func NormalizeTableName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return inflection.Plural(toSnakeCase(name))
}

// isAuditTable reports whether name addresses the audit table itself,
// either as stored or as an entity name.
func isAuditTable(name string) bool {
	name = strings.TrimSpace(name)
	return name == models.AuditTable || NormalizeTableName(name) == NormalizeTableName(models.AuditTable)
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// changedKeys lists, in sorted order, the keys whose values differ between
// the two mappings.
func changedKeys(oldValues, newValues tracking.Values) []string {
	seen := make(map[string]struct{}, len(oldValues)+len(newValues))
	var out []string
	for _, vs := range []tracking.Values{oldValues, newValues} {
		for k := range vs {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !oldValues[k].Equal(newValues[k]) {
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// onlyKeys returns the entries of vs named in keys; nil when none remain.
func onlyKeys(vs tracking.Values, keys []string) tracking.Values {
	var out tracking.Values
	for _, k := range keys {
		v, ok := vs[k]
		if !ok {
			continue
		}
		if out == nil {
			out = make(tracking.Values, len(keys))
		}
		out[k] = v
	}
	return out
}

func optional(s string) tracking.Value {
	if s == "" {
		return tracking.Null()
	}
	return tracking.String(s)
}
