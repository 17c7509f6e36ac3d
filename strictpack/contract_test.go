// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestReadContractOfRecord(t *testing.T) {
	cc := NewContractCollection()
	c, err := ReadContractOf[UserScoreWithDefault](cc)
	if err != nil {
		t.Fatalf("ReadContractOf: %v", err)
	}
	rec, ok := c.(*RecordReadContract)
	if !ok {
		t.Fatalf("got %T, want *RecordReadContract", c)
	}
	if rec.Name != "UserScoreWithDefault" || len(rec.Fields) != 2 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if f := rec.Fields[0]; f.Name != "name" || f.Contract != Primitive(String) || f.HasDefault {
		t.Errorf("field 0 = %+v", f)
	}
	if f := rec.Fields[1]; f.Name != "score" || f.Contract != Primitive(Int32) || !f.HasDefault || f.Default != int32(100) {
		t.Errorf("field 1 = %+v", f)
	}
}

func TestContractCacheReturnsSameObject(t *testing.T) {
	cc := NewContractCollection()
	typ := reflect.TypeOf(WeightedUserScore{})
	a, err := cc.ReadContract(typ)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cc.ReadContract(typ)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("second request built a new contract")
	}
	// The nested record is cached under its own type too.
	inner, err := cc.ReadContract(reflect.TypeOf(UserScore{}))
	if err != nil {
		t.Fatal(err)
	}
	if a.(*RecordReadContract).Fields[1].Contract != inner {
		t.Fatal("nested record not shared")
	}
	// float64, string and int32 are cached as well as the two records.
	if got := cc.Len(); got != 5 {
		t.Errorf("Len = %d, want 5", got)
	}
}

func TestContractCacheConcurrent(t *testing.T) {
	cc := NewContractCollection()
	typ := reflect.TypeOf(Tree{})
	var wg sync.WaitGroup
	results := make([]ReadContract, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := cc.ReadContract(typ)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = c
		}(i)
	}
	wg.Wait()
	for _, c := range results[1:] {
		if c != results[0] {
			t.Fatal("concurrent requests produced different contracts")
		}
	}
}

func TestByValueContractsInterned(t *testing.T) {
	type A struct{ Xs []int32 }
	type B struct{ Ys []int32 }
	cc := NewContractCollection()
	a, err := WriteContractOf[A](cc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := WriteContractOf[B](cc)
	if err != nil {
		t.Fatal(err)
	}
	la := a.(*RecordWriteContract).Fields[0].Contract
	lb := b.(*RecordWriteContract).Fields[0].Contract
	if la != lb {
		t.Fatal("equal collection contracts were not shared")
	}
	if got := cc.Intern(NewListWriteContract(Primitive(Int32))); got != la {
		t.Fatal("Intern did not return the canonical instance")
	}
}

func TestRecursiveContracts(t *testing.T) {
	cc := NewContractCollection()
	c, err := ReadContractOf[Tree](cc)
	if err != nil {
		t.Fatal(err)
	}
	rec := c.(*RecordReadContract)
	list, ok := rec.Fields[1].Contract.(*ListReadContract)
	if !ok {
		t.Fatalf("Children contract = %T", rec.Fields[1].Contract)
	}
	if list.Item != c {
		t.Fatal("self reference did not resolve to the same contract")
	}

	n, err := WriteContractOf[LinkedNode](cc)
	if err != nil {
		t.Fatal(err)
	}
	next, ok := n.(*RecordWriteContract).Fields[1].Contract.(*NullableWriteContract)
	if !ok {
		t.Fatalf("Next contract = %T, want *NullableWriteContract", n.(*RecordWriteContract).Fields[1].Contract)
	}
	if next.Item != n {
		t.Fatal("pointer self reference did not resolve to the same contract")
	}
}

func TestTupleAndArrayContracts(t *testing.T) {
	cc := NewContractCollection()
	c, err := ReadContractOf[Tuple3[int32, string, Color]](cc)
	if err != nil {
		t.Fatal(err)
	}
	tup, ok := c.(*TupleReadContract)
	if !ok || len(tup.Items) != 3 {
		t.Fatalf("got %#v", c)
	}
	if _, ok := tup.Items[2].(*EnumContract); !ok {
		t.Errorf("item 3 = %T, want enum", tup.Items[2])
	}

	arr, err := ReadContractOf[[4]uint8](cc)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(arr.(*TupleReadContract).Items); got != 4 {
		t.Errorf("array arity = %d", got)
	}

	bs, err := ReadContractOf[[]byte](cc)
	if err != nil {
		t.Fatal(err)
	}
	if bs != Primitive(Bytes) {
		t.Errorf("[]byte contract = %v", Markup(bs))
	}
}

func TestUnsupportedShapes(t *testing.T) {
	type Empty struct{}
	type OnlyPrivate struct{ x int }
	type Collide struct {
		Name string
		NAME string
	}
	type BadDefault struct {
		N int8 `strictpack:"n,default=300"`
	}
	type BadEnumDefault struct {
		C Color `strictpack:"c,default=purple"`
	}
	type HasMap struct{ M map[string]int }
	type DeepBad struct{ Inner []HasMap }

	cases := []struct {
		name string
		typ  reflect.Type
	}{
		{"empty struct", reflect.TypeOf(Empty{})},
		{"only unexported", reflect.TypeOf(OnlyPrivate{})},
		{"case collision", reflect.TypeOf(Collide{})},
		{"default out of range", reflect.TypeOf(BadDefault{})},
		{"unknown enum default", reflect.TypeOf(BadEnumDefault{})},
		{"map", reflect.TypeOf(map[string]int{})},
		{"interface", reflect.TypeOf((*any)(nil)).Elem()},
		{"chan", reflect.TypeOf(make(chan int))},
		{"complex", reflect.TypeOf(complex64(0))},
		{"nested map", reflect.TypeOf(DeepBad{})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cc := NewContractCollection()
			_, err := cc.ReadContract(tc.typ)
			if !errors.Is(err, ErrUnsupportedShape) {
				t.Fatalf("ReadContract: got %v, want UnsupportedShape", err)
			}
			var se *Error
			if !errors.As(err, &se) || se.Type == nil {
				t.Fatalf("error does not name the offending type: %v", err)
			}
			if _, err := cc.WriteContract(tc.typ); !errors.Is(err, ErrUnsupportedShape) {
				t.Fatalf("WriteContract: got %v, want UnsupportedShape", err)
			}
			if cc.Len() != 0 {
				t.Fatalf("failed build left %d cached types", cc.Len())
			}
		})
	}
}

func TestEqualAndHash(t *testing.T) {
	a := NewRecordReadContract("A",
		ReadField{Name: "x", Contract: Primitive(Int32)},
		ReadField{Name: "tags", Contract: NewListReadContract(Primitive(String))},
	)
	b := NewRecordReadContract("B",
		ReadField{Name: "x", Contract: Primitive(Int32)},
		ReadField{Name: "tags", Contract: NewListReadContract(Primitive(String))},
	)
	if !Equal(a, b) || a.Hash() != b.Hash() {
		t.Fatal("structurally equal records differ")
	}
	c := NewRecordReadContract("A",
		ReadField{Name: "x", Contract: Primitive(Int64)},
		ReadField{Name: "tags", Contract: NewListReadContract(Primitive(String))},
	)
	if Equal(a, c) {
		t.Fatal("records with different field contracts are equal")
	}
	if Equal(NewTupleReadContract(Primitive(Int32)), NewListReadContract(Primitive(Int32))) {
		t.Fatal("tuple equals collection")
	}
	if Equal(NewNullableReadContract(Primitive(Int32)), Primitive(Int32)) {
		t.Fatal("nullable equals its item")
	}
	if n := NewNullableReadContract(Primitive(Int32)); NewNullableReadContract(n) != n {
		t.Fatal("nullable wrapped twice")
	}
	if !Equal(NewEnumContract("B", "A"), NewEnumContract("A", "B", "A")) {
		t.Fatal("enum member order or duplicates affect equality")
	}
	if Equal(NewTupleWriteContract(Primitive(Int32), Primitive(String)), NewTupleWriteContract(Primitive(String), Primitive(Int32))) {
		t.Fatal("tuple positions are ignored")
	}

	cc := NewContractCollection()
	t1, _ := ReadContractOf[Tree](cc)
	cc2 := NewContractCollection()
	t2, _ := ReadContractOf[Tree](cc2)
	if t1 == t2 || !Equal(t1, t2) || Hash(t1) != Hash(t2) {
		t.Fatal("recursive contracts from separate collections should be equal but distinct")
	}
}

func TestEqualComparesDefaultValues(t *testing.T) {
	type ScoreA struct {
		Name  string `strictpack:"name"`
		Score int32  `strictpack:"score,default=100"`
	}
	type ScoreB struct {
		Name  string `strictpack:"name"`
		Score int32  `strictpack:"score,default=200"`
	}
	type ScoreC struct {
		Name  string `strictpack:"name"`
		Score int32  `strictpack:"score,default=100"`
	}
	cc := NewContractCollection()
	a := mustRead[ScoreA](t, cc)
	b := mustRead[ScoreB](t, cc)
	if Equal(a, b) {
		t.Fatal("records with different default values are equal")
	}
	if Hash(a) == Hash(b) {
		t.Error("records with different default values hash alike")
	}
	if c := mustRead[ScoreC](t, cc); !Equal(a, c) || Hash(a) != Hash(c) {
		t.Fatal("records with the same defaults differ")
	}

	la := mustRead[[]ScoreA](t, cc)
	lb := mustRead[[]ScoreB](t, cc)
	if la == lb {
		t.Fatal("collections of different records were interned together")
	}
	if lb.(*ListReadContract).Item != b {
		t.Fatal("collection does not reference its own record")
	}
	if got, want := Markup(lb), "[{#ScoreB name:string score:int32=200}]"; got != want {
		t.Errorf("Markup = %q, want %q", got, want)
	}
	if lc := mustRead[[]ScoreC](t, cc); lc == la {
		t.Fatal("collections of distinct record types share a contract")
	}

	dec := func(s string) ReadContract {
		return NewRecordReadContract("D", ReadField{Name: "d", Contract: Primitive(Decimal), HasDefault: true, Default: decimal.RequireFromString(s)})
	}
	if !Equal(dec("1.5"), dec("1.50")) || Hash(dec("1.5")) != Hash(dec("1.50")) {
		t.Error("equal decimal defaults differ")
	}
	if Equal(dec("1.5"), dec("2")) {
		t.Error("different decimal defaults are equal")
	}
}

func TestMarkup(t *testing.T) {
	cc := NewContractCollection()
	c, err := ReadContractOf[UserScoreWithDefault](cc)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Markup(c), "{#UserScoreWithDefault name:string score:int32=100}"; got != want {
		t.Errorf("Markup = %q, want %q", got, want)
	}

	tree, _ := ReadContractOf[Tree](cc)
	if got, want := Markup(tree), "{#Tree Value:int32 Children:[#Tree]}"; got != want {
		t.Errorf("Markup(Tree) = %q, want %q", got, want)
	}

	tup, _ := WriteContractOf[Tuple2[[]Color, *UserScore]](cc)
	if got, want := Markup(tup), "{tuple [(Blue Green Red)] {#UserScore name:string score:int32}?}"; got != want {
		t.Errorf("Markup(tuple) = %q, want %q", got, want)
	}
	if got, want := tup.MarkupValue(), "{tuple [(Blue Green Red)] #UserScore?}"; got != want {
		t.Errorf("MarkupValue(tuple) = %q, want %q", got, want)
	}

	d, _ := ReadContractOf[Defaults](cc)
	m := Markup(d)
	for _, frag := range []string{`str:string="str"`, "o:{#UserScore name:string score:int32}?=null", "c:(Blue Green Red)=Green", "p:int32?=7", "dc:decimal=1.23"} {
		if !strings.Contains(m, frag) {
			t.Errorf("Markup(Defaults) = %q, missing %q", m, frag)
		}
	}
}

func TestCopyTo(t *testing.T) {
	src := NewContractCollection()
	tree, err := ReadContractOf[Tree](src)
	if err != nil {
		t.Fatal(err)
	}
	dst := NewContractCollection()
	copied := tree.CopyReadTo(dst)
	if copied == tree {
		t.Fatal("copy returned the source contract")
	}
	if !Equal(copied, tree) {
		t.Fatal("copy is not structurally equal")
	}
	list := copied.(*RecordReadContract).Fields[1].Contract.(*ListReadContract)
	if list.Item != copied {
		t.Fatal("copy did not preserve the cycle")
	}
	if again := tree.CopyReadTo(dst); again != copied {
		t.Fatal("copying twice produced two graphs")
	}
	if dst.Intern(NewListReadContract(copied)) != list {
		t.Fatal("copied collection contract not interned in destination")
	}

	// The source holds the same shape, so canonical nodes are reused.
	if tree.(*RecordReadContract).Fields[1].Contract == list {
		t.Fatal("copy shares a node with the source collection")
	}

	w, _ := WriteContractOf[Tuple2[int32, LinkedNode]](src)
	wc := w.CopyWriteTo(dst)
	if !Equal(w, wc) {
		t.Fatal("write copy differs")
	}
	node := wc.(*TupleWriteContract).Items[1].(*RecordWriteContract)
	next := node.Fields[1].Contract.(*NullableWriteContract)
	if next.Item != node {
		t.Fatal("copy did not preserve the pointer cycle")
	}
	if dst.Intern(NewNullableWriteContract(node)) != next {
		t.Fatal("copied nullable contract not interned in destination")
	}
	if dst.Intern(NewTupleWriteContract(Primitive(Int32), node)) != wc {
		t.Fatal("copied tuple contract not interned in destination")
	}
}
