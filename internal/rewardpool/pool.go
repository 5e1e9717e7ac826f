package rewardpool

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ErrEmptyPool はプールが空で抽選できないことを表す。
var ErrEmptyPool = errors.New("報酬プールが空です")

// rangePattern は "10003-10010" 形式の閉区間トークンにマッチする。
var rangePattern = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)

// MaxRangeSize は1つの範囲トークンが展開できるIDの最大数。これを超える範囲は不正なトークンとして無視する。
const MaxRangeSize = 100000

// singlePattern は単一の非負整数トークンにマッチする。
var singlePattern = regexp.MustCompile(`^\d+$`)

// Pool は抽選対象のアイテム定義IDの集合。
// 要素は重複なしの昇順で、生成後に変更されることはない。
type Pool struct {
	// ids は昇順に並んだアイテム定義ID。
	ids []int
}

// Parse はカンマまたはセミコロン区切りの文字列から Pool を生成する。
// "a-b" 形式は a から b までのすべての整数を追加する（a > b の場合や、
// 要素数が MaxRangeSize を超える場合は無視）。
// 解釈できないトークンはエラーにせず読み飛ばす。
func Parse(list string) Pool {
	seen := make(map[int]struct{})
	tokens := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';'
	})

	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		if m := rangePattern.FindStringSubmatch(token); m != nil {
			lo, errLo := strconv.Atoi(m[1])
			hi, errHi := strconv.Atoi(m[2])
			if errLo != nil || errHi != nil || lo > hi || hi-lo >= MaxRangeSize {
				continue
			}
			for id := lo; id <= hi; id++ {
				seen[id] = struct{}{}
				if id == hi {
					break // hi が int の最大値でも無限ループしない
				}
			}
			continue
		}

		if singlePattern.MatchString(token) {
			id, err := strconv.Atoi(token)
			if err != nil {
				continue
			}
			seen[id] = struct{}{}
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return Pool{ids: ids}
}

// Len はプールに含まれるIDの数を返す。
func (p Pool) Len() int {
	return len(p.ids)
}

// Values はプールのIDを昇順で返す。返されるスライスはコピー。
func (p Pool) Values() []int {
	return append([]int{}, p.ids...)
}

// Contains は id がプールに含まれるかどうかを返す。
func (p Pool) Contains(id int) bool {
	_, found := slices.BinarySearch(p.ids, id)
	return found
}

// Pick はプールから一様ランダムに1つのIDを選ぶ。
// 呼び出しごとに独立して抽選する。プールが空の場合は ErrEmptyPool を返す。
func (p Pool) Pick() (int, error) {
	if len(p.ids) == 0 {
		return 0, ErrEmptyPool
	}
	return p.ids[rand.IntN(len(p.ids))], nil
}

// String はプールをカンマ区切りの正規形で返す。Parse に渡すと同じ Pool が得られる。
func (p Pool) String() string {
	parts := make([]string, len(p.ids))
	for i, id := range p.ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
