// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pg

import (
	"context"
	"fmt"

	"neworder/core/neworder/domain"
	"neworder/modules/db"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var _ domain.RatingSource = (*RatingReader)(nil)

// RatingReader counts image ratings on a read replica.
type RatingReader struct {
	table string
	pool  db.ReaderConnectionManager // calls Reader() at runtime
}

func NewRatingReader(pool db.ReaderConnectionManager) *RatingReader {
	return &RatingReader{table: ImageRatingsTable, pool: pool}
}

func (r *RatingReader) CountRatings(ctx context.Context, imageID int64, rank domain.Rank, nsfwLevel int) (int64, error) {
	query := psql.Select(
		sm.Columns("COUNT(*)"),
		sm.From(r.table),
		sm.Where(psql.Quote("image_id").EQ(psql.Arg(imageID))),
		sm.Where(psql.Quote("rank").EQ(psql.Arg(string(rank)))),
		sm.Where(psql.Quote("nsfw_level").EQ(psql.Arg(nsfwLevel))),
	)

	n, err := bob.One(ctx, r.pool.Reader(), query, scan.SingleColumnMapper[int64])
	if err != nil {
		return 0, fmt.Errorf("count ratings of image %d: %w", imageID, wrapError(err))
	}
	return n, nil
}
