// Package rekordbox reads Rekordbox XML library exports.
//
// A library export has two sections the copier cares about:
//
//	<DJ_PLAYLISTS>
//	  <COLLECTION Entries="2">
//	    <TRACK TrackID="1" Name="..." Artist="..." Location="file://localhost/Music/a.mp3"/>
//	  </COLLECTION>
//	  <PLAYLISTS>
//	    <NODE Type="0" Name="ROOT">
//	      <NODE Type="1" Name="Warmup" KeyType="0">
//	        <TRACK Key="1"/>
//	      </NODE>
//	    </NODE>
//	  </PLAYLISTS>
//	</DJ_PLAYLISTS>
//
// [Load] decodes the document once into a [Library]. The library exposes the track table
// ([Library.Tracks]), the flattened playlist map ([Library.Playlists]) and the join between
// the two ([Library.TracksFromPlaylist], [Library.Resolve]).
//
// Folder nodes (Type "0") only contribute a name prefix, so a playlist nested as
// ROOT > Sets > Friday is registered as "ROOT/Sets/Friday". When two nodes flatten to the
// same name the later one wins.
//
// Locations are stored as file URLs; [DecodeLocation] turns them back into paths.
package rekordbox
