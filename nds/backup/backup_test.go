// This file is part of dualnds.
//
// dualnds is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// dualnds is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with dualnds.  If not, see <https://www.gnu.org/licenses/>.

package backup_test

import (
	"errors"
	"testing"

	dnderrors "github.com/dualnds/dualnds/errors"
	"github.com/dualnds/dualnds/nds/backup"
	"github.com/dualnds/dualnds/test"
)

func TestValidRecognisesExactlyTheNineCapacities(t *testing.T) {
	test.ExpectEquality(t, backup.Size512B.Valid(), true)
	test.ExpectEquality(t, backup.Size8MiB.Valid(), true)
	test.ExpectEquality(t, backup.Size(123).Valid(), false)
}

func TestNewFillsImageWithAllOnes(t *testing.T) {
	img := backup.New(backup.Size8KiB)
	test.ExpectEquality(t, len(img.Bytes()), 8*1024)
	for i, b := range img.Bytes() {
		if b != 0xFF {
			t.Fatalf("byte %d = %#x, want 0xFF", i, b)
		}
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	img := backup.New(backup.Size512B)

	if err := img.Write(10, 0x42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := img.Read(10)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, got, byte(0x42))
}

func TestOutOfRangeAccessFaultsInvariantViolation(t *testing.T) {
	img := backup.New(backup.Size512B)

	_, err := img.Read(512)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, errors.Is(err, dnderrors.ErrInvariantViolation), true)

	err = img.Write(-1, 0)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, errors.Is(err, dnderrors.ErrInvariantViolation), true)
}

func TestDetectSizeRoundsExistingLengthUpToCanonicalCapacity(t *testing.T) {
	test.ExpectEquality(t, backup.DetectSize(100, 0), backup.Size512B)
	test.ExpectEquality(t, backup.DetectSize(9000, 0), backup.Size32KiB)
}

func TestDetectSizeUsesHintWhenThereIsNoExistingImage(t *testing.T) {
	test.ExpectEquality(t, backup.DetectSize(0, backup.Size64KiB), backup.Size64KiB)
}

func TestNewFromDataInfersSizeFromLength(t *testing.T) {
	data := make([]byte, 32*1024)
	img := backup.NewFromData(data)
	test.ExpectEquality(t, img.Size(), backup.Size32KiB)
}
