// import_items carga ítems de inventario desde un CSV exportado por sistemas heredados.
//
// Uso: go run ./cmd/import_items -org <organization_id> [-charset iso-8859-1] items.csv
//
// Columnas (cabecera obligatoria, orden libre): sku, name, initial_stock, reorder_level,
// unit_of_measure, unit_price, cost_price, category. Cada fila se crea con su movimiento
// INITIAL; las filas inválidas o con SKU duplicado se reportan y se omiten.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	"github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/invorya-stock/pkg/config"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

func main() {
	orgID := flag.String("org", "", "organization_id destino")
	charset := flag.String("charset", "utf-8", "codificación del archivo: utf-8 | iso-8859-1")
	actorID := flag.String("actor", "import_items", "actor_id registrado en el libro")
	flag.Parse()
	if *orgID == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_items -org <organization_id> [-charset iso-8859-1] archivo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("import_items")

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	rows, rowErrs, err := parseItems(f, *charset)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}
	for _, re := range rowErrs {
		log.Warn().Int("line", re.Line).Err(re.Err).Msg("fila omitida")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemUC := inventory.NewItemUseCase(
		postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		postgres.NewInventoryItemRepository(pool),
		postgres.NewStockMovementRepository(pool),
		nil, nil, nil, log,
	)
	actor := entity.Actor{OrganizationID: *orgID, UserID: *actorID, Kind: entity.ActorKindAgent}

	created, skipped := importRows(ctx, itemUC, actor, rows, log)
	log.Info().Int("created", created).Int("skipped", skipped+len(rowErrs)).Msg("importación finalizada")
}

type itemCreator interface {
	Create(ctx context.Context, actor entity.Actor, in dto.CreateItemRequest) (*dto.ItemResponse, error)
}

// importRows crea cada ítem en su propia transacción; un duplicado no detiene el resto.
func importRows(ctx context.Context, uc itemCreator, actor entity.Actor, rows []csvRow, log *logger.Logger) (created, skipped int) {
	for _, r := range rows {
		if _, err := uc.Create(ctx, actor, r.Item); err != nil {
			skipped++
			ev := log.Warn()
			if !errors.Is(err, domain.ErrDuplicate) && !errors.Is(err, domain.ErrInvalidInput) {
				ev = log.Error()
			}
			ev.Int("line", r.Line).Str("sku", r.Item.SKU).Err(err).Msg("ítem no importado")
			continue
		}
		created++
	}
	return created, skipped
}

type csvRow struct {
	Line int
	Item dto.CreateItemRequest
}

type rowError struct {
	Line int
	Err  error
}

var requiredColumns = []string{"sku", "name"}

// parseItems decodifica el CSV (coma o punto y coma) a solicitudes de creación.
func parseItems(r io.Reader, charset string) ([]csvRow, []rowError, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8":
	case "iso-8859-1", "iso8859-1", "latin1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return nil, nil, fmt.Errorf("codificación no soportada: %q", charset)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("leer cabecera: %w", err)
	}
	if len(header) == 1 && strings.Contains(header[0], ";") {
		return nil, nil, errors.New("el separador debe ser coma; exporte el archivo como CSV estándar")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	var (
		rows []csvRow
		errs []rowError
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, errs, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		item, err := rowToItem(get)
		if err != nil {
			errs = append(errs, rowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, csvRow{Line: line, Item: item})
	}
	return rows, errs, nil
}

func rowToItem(get func(string) string) (dto.CreateItemRequest, error) {
	in := dto.CreateItemRequest{
		SKU:           get("sku"),
		Name:          get("name"),
		UnitOfMeasure: get("unit_of_measure"),
		Category:      get("category"),
	}
	if in.SKU == "" || in.Name == "" {
		return in, errors.New("sku y name son obligatorios")
	}
	var err error
	if in.InitialStock, err = parseInt(get("initial_stock")); err != nil {
		return in, fmt.Errorf("initial_stock: %w", err)
	}
	if in.ReorderLevel, err = parseInt(get("reorder_level")); err != nil {
		return in, fmt.Errorf("reorder_level: %w", err)
	}
	if in.UnitPrice, err = parseDecimal(get("unit_price")); err != nil {
		return in, fmt.Errorf("unit_price: %w", err)
	}
	if raw := get("cost_price"); raw != "" {
		cost, err := parseDecimal(raw)
		if err != nil {
			return in, fmt.Errorf("cost_price: %w", err)
		}
		in.CostPrice = &cost
	}
	return in, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("no puede ser negativo")
	}
	return n, nil
}

// parseDecimal acepta coma decimal ("1250,50") además de punto.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
