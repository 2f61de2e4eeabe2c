package handlers

import "testing"

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		perPage    int
		wantStart  int
		wantEnd    int
		wantPages  int
	}{
		{"première page pleine", 30, 1, 12, 0, 12, 3},
		{"dernière page partielle", 30, 3, 12, 24, 30, 3},
		{"page au-delà rabattue sur la dernière", 30, 99, 12, 24, 30, 3},
		{"page zéro rabattue sur la première", 30, 0, 12, 0, 12, 3},
		{"page négative rabattue sur la première", 30, -4, 12, 0, 12, 3},
		{"liste vide", 0, 1, 12, 0, 0, 1},
		{"liste vide page lointaine", 0, 7, 12, 0, 0, 1},
		{"per_page invalide retombe sur 12", 30, 1, 0, 0, 12, 3},
		{"total plus petit qu'une page", 5, 1, 12, 0, 5, 1},
		{"per_page de 1", 3, 2, 1, 1, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, pages := paginate(tt.total, tt.page, tt.perPage)
			if start != tt.wantStart || end != tt.wantEnd || pages != tt.wantPages {
				t.Errorf("paginate(%d, %d, %d) = (%d, %d, %d), attendu (%d, %d, %d)",
					tt.total, tt.page, tt.perPage, start, end, pages,
					tt.wantStart, tt.wantEnd, tt.wantPages)
			}
		})
	}
}
