package realtime

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const NotifyChannel = "storefront_changes"

const notifyFunctionSQL = `
CREATE OR REPLACE FUNCTION storefront_notify_change() RETURNS trigger AS $$
DECLARE
	rec RECORD;
	v_order_id uuid;
BEGIN
	IF TG_OP = 'DELETE' THEN
		rec := OLD;
	ELSE
		rec := NEW;
	END IF;
	IF TG_TABLE_NAME = 'orders' THEN
		v_order_id := rec.id;
	ELSE
		v_order_id := rec.order_id;
	END IF;
	PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
		'table', TG_TABLE_NAME,
		'op', TG_OP,
		'id', rec.id,
		'order_id', v_order_id
	)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`

var watchedTables = []string{TableOrders, TableShipping}

// InstallTriggers makes postgres announce every change to orders and
// shipping on NotifyChannel. Other dialects are left alone and reported as
// not installed, in which case writers publish to the hub themselves. A
// failed install also reports false so callers fall back the same way.
func InstallTriggers(ctx context.Context, db *gorm.DB) (bool, error) {
	if db.Dialector.Name() != "postgres" {
		return false, nil
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(notifyFunctionSQL).Error; err != nil {
			return fmt.Errorf("create notify function: %w", err)
		}
		for _, table := range watchedTables {
			trigger := "storefront_" + table + "_notify"
			if err := tx.Exec(fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, table)).Error; err != nil {
				return fmt.Errorf("drop trigger %s: %w", trigger, err)
			}
			if err := tx.Exec(fmt.Sprintf(
				"CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION storefront_notify_change()",
				trigger, table,
			)).Error; err != nil {
				return fmt.Errorf("create trigger %s: %w", trigger, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
