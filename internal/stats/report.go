package stats

import (
	"fmt"
	"time"

	"github.com/slavuta-ads/adsbot/internal/i18n"
)

// Report renders the daily statistics report shown to admins.
func Report(s Snapshot, day time.Time, lang string) string {
	return fmt.Sprintf(
		i18n.Get("📊 Statistics for %s\n📢 Announcements: %d\n📣 Advertising: %d\n💰 Selling: %d\n🛒 Buying: %d\n📈 Total: %d", lang),
		day.Format("02/01/2006"),
		s.Announcement, s.Advertising, s.Selling, s.Buying, s.Total(),
	)
}
