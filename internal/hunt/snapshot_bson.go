package hunt

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// UnmarshalBSONValue decodes an ID list stored in a document database with
// the same leniency as UnmarshalJSON.
func (l *IDList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*l = nil
	if t != bsontype.Array {
		return nil
	}
	values, err := bson.Raw(data).Values()
	if err != nil {
		return nil
	}
	for _, v := range values {
		if id, ok := bsonID(v); ok {
			*l = append(*l, id)
		}
	}
	return nil
}

func bsonID(v bson.RawValue) (int, bool) {
	switch v.Type {
	case bsontype.Int32:
		return int(v.Int32()), true
	case bsontype.Int64:
		return wholeID(float64(v.Int64()))
	case bsontype.Double:
		return wholeID(v.Double())
	case bsontype.String:
		return numericID(v.StringValue())
	}
	return 0, false
}
